// Package rabbitmq provides a RabbitMQ/AMQP transport. The endpoint URL is
// the AMQP URI.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/brokercore/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "rabbitmq"

// PropertyDurable selects durable (default) or transient queues.
const PropertyDurable = "durable"

// ConnectionFactory allows overriding the connection creation for testing.
var ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
	return amqp.NewConnection(cfg, logger)
}

// ConnectionCloser allows overriding how the shared connection is released.
var ConnectionCloser = func(conn *amqp.ConnectionWrapper) error {
	return conn.Close()
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
	return amqp.NewPublisherWithConnection(cfg, logger, conn)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Subscriber, error) {
	return amqp.NewSubscriberWithConnection(cfg, logger, conn)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.RabbitMQCapabilities)
	transport.DefaultRegistry.Alias("amqp", TransportName)
}

// PubSubConfig returns the watermill AMQP config for an endpoint.
func PubSubConfig(ep transport.Endpoint) (amqp.Config, error) {
	durable := true
	if raw := ep.GetProperty(PropertyDurable); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return amqp.Config{}, fmt.Errorf("rabbitmq channel %q: invalid %s %q: %w", ep.GetID(), PropertyDurable, raw, err)
		}
		durable = v
	}
	if durable {
		return amqp.NewDurablePubSubConfig(ep.GetURL(), amqp.GenerateQueueNameTopicName), nil
	}
	return amqp.NewNonDurablePubSubConfig(ep.GetURL(), amqp.GenerateQueueNameTopicName), nil
}

// Build creates a new RabbitMQ transport. Publisher and subscriber share one
// connection, released when the subscriber is closed.
func Build(ctx context.Context, ep transport.Endpoint, logger watermill.LoggerAdapter) (transport.Transport, error) {
	url := ep.GetURL()
	if url == "" {
		return transport.Transport{}, fmt.Errorf("rabbitmq channel %q: URL is required", ep.GetID())
	}
	amqpConfig, err := PubSubConfig(ep)
	if err != nil {
		return transport.Transport{}, err
	}

	conn, err := ConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   url,
		TLSConfig: nil,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	publisher, err := PublisherFactory(amqpConfig, logger, conn)
	if err != nil {
		return transport.Transport{}, errors.Join(err, ConnectionCloser(conn))
	}

	subscriber, err := SubscriberFactory(amqpConfig, logger, conn)
	if err != nil {
		return transport.Transport{}, errors.Join(err, publisher.Close(), ConnectionCloser(conn))
	}

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: &connSubscriber{Subscriber: subscriber, conn: conn},
	}, nil
}

type connSubscriber struct {
	message.Subscriber
	conn *amqp.ConnectionWrapper
}

func (s *connSubscriber) Close() error {
	return errors.Join(s.Subscriber.Close(), ConnectionCloser(s.conn))
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.RabbitMQCapabilities
}
