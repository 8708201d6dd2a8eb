// Package transports imports all built-in transports for auto-registration.
// Import this package to have every channel type registered with the default
// registry.
package transports

import (
	_ "github.com/drblury/brokercore/transport/aws"
	_ "github.com/drblury/brokercore/transport/channel"
	_ "github.com/drblury/brokercore/transport/http"
	_ "github.com/drblury/brokercore/transport/kafka"
	_ "github.com/drblury/brokercore/transport/nats"
	_ "github.com/drblury/brokercore/transport/rabbitmq"
)
