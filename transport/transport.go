// Package transport builds the Watermill publisher/subscriber pairs that carry
// a broker channel. Each transport implementation (kafka, rabbitmq, aws, etc.)
// lives in its own sub-package and registers itself with the transport
// registry under the channel type it serves.
package transport

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close closes the subscriber and then the publisher. When both sides are the
// same value it is closed once.
func (t Transport) Close() error {
	var errs []error
	if t.Subscriber != nil {
		errs = append(errs, t.Subscriber.Close())
	}
	if t.Publisher != nil && !sameEndpoint(t.Publisher, t.Subscriber) {
		errs = append(errs, t.Publisher.Close())
	}
	return errors.Join(errs...)
}

func sameEndpoint(pub message.Publisher, sub message.Subscriber) (same bool) {
	if sub == nil {
		return false
	}
	// Uncomparable dynamic types panic on ==; treat them as distinct.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return any(pub) == any(sub)
}

// Builder is the function signature for creating a transport for a channel
// endpoint. Each transport package provides a Build function of this type.
type Builder func(ctx context.Context, ep Endpoint, logger watermill.LoggerAdapter) (Transport, error)

// Endpoint describes the channel a transport is built for. The broker's
// channel settings implement it.
type Endpoint interface {
	// GetID returns the channel id.
	GetID() string
	// GetType returns the transport type name.
	GetType() string
	// GetURL returns the transport address: broker list, server URL or
	// custom endpoint, depending on the type.
	GetURL() string
	// GetProperty returns a transport-specific property, or "".
	GetProperty(key string) string
}

// StaticEndpoint is a literal Endpoint.
type StaticEndpoint struct {
	ID         string
	Type       string
	URL        string
	Properties map[string]string
}

func (e StaticEndpoint) GetID() string                 { return e.ID }
func (e StaticEndpoint) GetType() string               { return e.Type }
func (e StaticEndpoint) GetURL() string                { return e.URL }
func (e StaticEndpoint) GetProperty(key string) string { return e.Properties[key] }

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
