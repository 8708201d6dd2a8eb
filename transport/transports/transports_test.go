package transports

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drblury/brokercore/transport"
)

func TestBuiltInTransportsRegistered(t *testing.T) {
	assert.Equal(t,
		[]string{"aws", "channel", "http", "kafka", "nats", "rabbitmq"},
		transport.DefaultRegistry.Names(),
	)
	for _, alias := range []string{"gochannel", "amqp"} {
		assert.True(t, transport.DefaultRegistry.Has(alias), alias)
	}
}
