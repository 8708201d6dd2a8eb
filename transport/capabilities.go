package transport

import "strings"

// Capabilities describes the delivery features of a transport backend. The
// broker does not deliver messages itself; it uses capabilities to reject
// channel bindings a destination's network settings cannot be honoured on.
type Capabilities struct {
	Name string

	SupportsOrdering     bool
	SupportsTracing      bool
	SupportsBatching     bool
	SupportsAck          bool
	SupportsNack         bool
	SupportsPartitioning bool
	SupportsNativeDLQ    bool

	// MaxMessageSize is the maximum message size in bytes (0 = unlimited/unknown).
	MaxMessageSize int64
}

// SupportsReliableDelivery returns true if the transport supports at-least-once
// delivery semantics (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Features lists the supported features by name, for display.
func (c Capabilities) Features() []string {
	var out []string
	flags := []struct {
		name string
		on   bool
	}{
		{"ordering", c.SupportsOrdering},
		{"tracing", c.SupportsTracing},
		{"batching", c.SupportsBatching},
		{"ack", c.SupportsAck},
		{"nack", c.SupportsNack},
		{"partitioning", c.SupportsPartitioning},
		{"dlq", c.SupportsNativeDLQ},
	}
	for _, f := range flags {
		if f.on {
			out = append(out, f.name)
		}
	}
	return out
}

func (c Capabilities) String() string {
	return c.Name + "[" + strings.Join(c.Features(), ",") + "]"
}

// Predefined capability sets for the built-in transports.
var (
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	KafkaCapabilities = Capabilities{
		Name:                 "kafka",
		SupportsOrdering:     true,
		SupportsTracing:      true,
		SupportsBatching:     true,
		SupportsAck:          true,
		SupportsPartitioning: true,
		MaxMessageSize:       1048576, // Default 1MB
	}

	RabbitMQCapabilities = Capabilities{
		Name:              "rabbitmq",
		SupportsOrdering:  true,
		SupportsTracing:   true,
		SupportsAck:       true,
		SupportsNack:      true,
		SupportsNativeDLQ: true,
	}

	// NATSCapabilities describe NATS Core, which is fire-and-forget.
	NATSCapabilities = Capabilities{
		Name:            "nats",
		SupportsTracing: true,
		MaxMessageSize:  1048576, // Default 1MB
	}

	AWSCapabilities = Capabilities{
		Name:              "aws",
		SupportsOrdering:  true,
		SupportsTracing:   true,
		SupportsBatching:  true,
		SupportsAck:       true,
		SupportsNack:      true,
		SupportsNativeDLQ: true,
		MaxMessageSize:    262144, // 256KB
	}

	HTTPCapabilities = Capabilities{
		Name:            "http",
		SupportsTracing: true,
	}
)

// GetCapabilities returns the capabilities for a transport by name.
// Uses the registry to look up capabilities registered by each transport package.
// Returns a zero Capabilities struct if the transport is unknown.
func GetCapabilities(transportName string) Capabilities {
	return DefaultRegistry.GetCapabilities(transportName)
}
