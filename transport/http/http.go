// Package http provides an HTTP transport. The endpoint URL is the base URL
// messages are posted to; the listen property is the subscriber address.
package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/brokercore/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "http"

// PropertyListen is the address the subscriber server binds to.
const PropertyListen = "listen"

// DefaultListenAddress is used when the endpoint has no listen property.
const DefaultListenAddress = ":8080"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return http.NewPublisher(config, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(addr string, config http.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return http.NewSubscriber(addr, config, logger)
}

// ServerStarter runs the subscriber's HTTP server. It is called in its own
// goroutine.
var ServerStarter = func(sub message.Subscriber, logger watermill.LoggerAdapter) {
	s, ok := sub.(*http.Subscriber)
	if !ok {
		return
	}
	if err := s.StartHTTPServer(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		logger.Error("Failed to start HTTP subscriber server", err, nil)
	}
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.HTTPCapabilities)
}

// TopicURL joins the endpoint base URL and a topic.
func TopicURL(base, topic string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(topic, "/")
}

// Build creates a new HTTP transport.
func Build(ctx context.Context, ep transport.Endpoint, logger watermill.LoggerAdapter) (transport.Transport, error) {
	publisherURL := ep.GetURL()
	if publisherURL == "" {
		return transport.Transport{}, fmt.Errorf("http channel %q: URL is required", ep.GetID())
	}
	serverAddr := ep.GetProperty(PropertyListen)
	if serverAddr == "" {
		serverAddr = DefaultListenAddress
	}

	publisher, err := PublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*nethttp.Request, error) {
				return http.DefaultMarshalMessageFunc(TopicURL(publisherURL, topic), msg)
			},
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := SubscriberFactory(
		serverAddr,
		http.SubscriberConfig{
			UnmarshalMessageFunc: http.DefaultUnmarshalMessageFunc,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return transport.Transport{}, err
	}

	go ServerStarter(subscriber, logger)

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: subscriber,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.HTTPCapabilities
}
