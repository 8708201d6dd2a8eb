// Package kafka provides a Kafka transport. The endpoint URL is a
// comma-separated list of brokers.
package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/brokercore/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "kafka"

// Endpoint properties understood by Build.
const (
	PropertyConsumerGroup = "consumer_group"
	PropertyClientID      = "client_id"
)

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return kafka.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return kafka.NewSubscriber(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.KafkaCapabilities)
}

// Brokers splits the endpoint URL into broker addresses.
func Brokers(ep transport.Endpoint) []string {
	var brokers []string
	for _, b := range strings.Split(ep.GetURL(), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Build creates a new Kafka transport.
func Build(ctx context.Context, ep transport.Endpoint, logger watermill.LoggerAdapter) (transport.Transport, error) {
	brokers := Brokers(ep)
	if len(brokers) == 0 {
		return transport.Transport{}, fmt.Errorf("kafka channel %q: no brokers in URL", ep.GetID())
	}
	clientID := ep.GetProperty(PropertyClientID)

	pubSarama := kafka.DefaultSaramaSyncPublisherConfig()
	if clientID != "" {
		pubSarama.ClientID = clientID
	}
	publisher, err := PublisherFactory(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: pubSarama,
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	subSarama := kafka.DefaultSaramaSubscriberConfig()
	if clientID != "" {
		subSarama.ClientID = clientID
	}
	subscriber, err := SubscriberFactory(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			ConsumerGroup:         ep.GetProperty(PropertyConsumerGroup),
			OverwriteSaramaConfig: subSarama,
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
	return transport.KafkaCapabilities
}
