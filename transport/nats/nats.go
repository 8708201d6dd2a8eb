// Package nats provides a NATS Core transport. The endpoint URL is the NATS
// server URL.
package nats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/drblury/brokercore/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "nats"

// Endpoint properties understood by Build.
const (
	PropertyName          = "name"
	PropertyMaxReconnects = "max_reconnects"
	PropertyQueueGroup    = "queue_group"
)

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return nats.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg nats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return nats.NewSubscriber(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.NATSCapabilities)
}

// Options maps endpoint properties onto nats.go connection options.
func Options(ep transport.Endpoint) ([]nc.Option, error) {
	var opts []nc.Option
	if name := ep.GetProperty(PropertyName); name != "" {
		opts = append(opts, nc.Name(name))
	}
	if raw := ep.GetProperty(PropertyMaxReconnects); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("nats channel %q: invalid %s %q: %w", ep.GetID(), PropertyMaxReconnects, raw, err)
		}
		opts = append(opts, nc.MaxReconnects(n))
	}
	return opts, nil
}

// Build creates a new NATS transport.
func Build(ctx context.Context, ep transport.Endpoint, logger watermill.LoggerAdapter) (transport.Transport, error) {
	url := ep.GetURL()
	if url == "" {
		return transport.Transport{}, fmt.Errorf("nats channel %q: URL is required", ep.GetID())
	}
	opts, err := Options(ep)
	if err != nil {
		return transport.Transport{}, err
	}
	marshaler := &nats.NATSMarshaler{}
	core := nats.JetStreamConfig{Disabled: true}

	publisher, err := PublisherFactory(
		nats.PublisherConfig{
			URL:         url,
			NatsOptions: opts,
			Marshaler:   marshaler,
			JetStream:   core,
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := SubscriberFactory(
		nats.SubscriberConfig{
			URL:              url,
			NatsOptions:      opts,
			QueueGroupPrefix: ep.GetProperty(PropertyQueueGroup),
			Unmarshaler:      marshaler,
			JetStream:        core,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: subscriber,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.NATSCapabilities
}
