package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	watermillhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/brokercore/transport"
)

func endpoint(url string, props map[string]string) transport.StaticEndpoint {
	return transport.StaticEndpoint{ID: "webhooks", Type: TransportName, URL: url, Properties: props}
}

func stubServer(t *testing.T) <-chan message.Subscriber {
	t.Helper()
	original := ServerStarter
	t.Cleanup(func() { ServerStarter = original })
	started := make(chan message.Subscriber, 1)
	ServerStarter = func(sub message.Subscriber, logger watermill.LoggerAdapter) {
		started <- sub
	}
	return started
}

func TestRegistered(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(TransportName))
	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "http", caps.Name)
	assert.False(t, caps.SupportsReliableDelivery())
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.HTTPCapabilities, Capabilities())
}

func TestTopicURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/orders", TopicURL("http://localhost:8080", "orders"))
	assert.Equal(t, "http://localhost:8080/orders", TopicURL("http://localhost:8080/", "/orders"))
}

func TestBuild(t *testing.T) {
	t.Run("creates transport with mocked factories", func(t *testing.T) {
		started := stubServer(t)
		originalPubFactory := PublisherFactory
		originalSubFactory := SubscriberFactory
		defer func() {
			PublisherFactory = originalPubFactory
			SubscriberFactory = originalSubFactory
		}()

		mockPub := &mockPublisher{}
		mockSub := &mockSubscriber{}
		var marshal func(string, *message.Message) (*nethttp.Request, error)

		PublisherFactory = func(config watermillhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			marshal = config.MarshalMessageFunc
			return mockPub, nil
		}
		SubscriberFactory = func(addr string, config watermillhttp.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			assert.Equal(t, ":9090", addr)
			return mockSub, nil
		}

		ep := endpoint("http://localhost:8080/", map[string]string{PropertyListen: ":9090"})
		tr, err := Build(context.Background(), ep, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, mockPub, tr.Publisher)
		assert.Equal(t, mockSub, tr.Subscriber)
		assert.Equal(t, mockSub, <-started)

		require.NotNil(t, marshal)
		req, err := marshal("orders", message.NewMessage("1", []byte(`{}`)))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/orders", req.URL.String())
	})

	t.Run("defaults the listen address", func(t *testing.T) {
		stubServer(t)
		originalPubFactory := PublisherFactory
		originalSubFactory := SubscriberFactory
		defer func() {
			PublisherFactory = originalPubFactory
			SubscriberFactory = originalSubFactory
		}()

		PublisherFactory = func(config watermillhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return &mockPublisher{}, nil
		}
		var gotAddr string
		SubscriberFactory = func(addr string, config watermillhttp.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			gotAddr = addr
			return &mockSubscriber{}, nil
		}

		_, err := Build(context.Background(), endpoint("http://localhost:8080", nil), watermill.NopLogger{})
		require.NoError(t, err)
		assert.Equal(t, DefaultListenAddress, gotAddr)
	})

	t.Run("requires URL", func(t *testing.T) {
		_, err := Build(context.Background(), endpoint("", nil), watermill.NopLogger{})
		assert.ErrorContains(t, err, "URL is required")
	})

	t.Run("returns error when publisher factory fails", func(t *testing.T) {
		originalPubFactory := PublisherFactory
		defer func() { PublisherFactory = originalPubFactory }()

		PublisherFactory = func(config watermillhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		_, err := Build(context.Background(), endpoint("http://localhost:8080", nil), watermill.NopLogger{})

		assert.ErrorContains(t, err, "publisher error")
	})

	t.Run("closes publisher when subscriber factory fails", func(t *testing.T) {
		originalPubFactory := PublisherFactory
		originalSubFactory := SubscriberFactory
		defer func() {
			PublisherFactory = originalPubFactory
			SubscriberFactory = originalSubFactory
		}()

		pub := &mockPublisher{}
		PublisherFactory = func(config watermillhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return pub, nil
		}
		SubscriberFactory = func(addr string, config watermillhttp.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			return nil, errors.New("subscriber error")
		}

		_, err := Build(context.Background(), endpoint("http://localhost:8080", nil), watermill.NopLogger{})

		assert.ErrorContains(t, err, "subscriber error")
		assert.True(t, pub.closed)
	})
}

type mockPublisher struct{ closed bool }

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error { return nil }
func (m *mockPublisher) Close() error {
	m.closed = true
	return nil
}

type mockSubscriber struct{}

func (m *mockSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return make(chan *message.Message), nil
}
func (m *mockSubscriber) Close() error { return nil }
