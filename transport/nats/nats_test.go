package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/brokercore/transport"
)

func endpoint(url string, props map[string]string) transport.StaticEndpoint {
	return transport.StaticEndpoint{ID: "events", Type: TransportName, URL: url, Properties: props}
}

func TestRegistered(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(TransportName))
	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "nats", caps.Name)
	assert.False(t, caps.SupportsNativeDLQ)
	assert.True(t, caps.SupportsTracing)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.NATSCapabilities, Capabilities())
}

func TestOptions(t *testing.T) {
	opts, err := Options(endpoint("nats://localhost:4222", nil))
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = Options(endpoint("nats://localhost:4222", map[string]string{
		PropertyName:          "brokercore",
		PropertyMaxReconnects: "5",
	}))
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	_, err = Options(endpoint("nats://localhost:4222", map[string]string{PropertyMaxReconnects: "many"}))
	assert.ErrorContains(t, err, "invalid max_reconnects")
}

func TestBuild(t *testing.T) {
	t.Run("creates transport with mocked factories", func(t *testing.T) {
		originalPubFactory := PublisherFactory
		originalSubFactory := SubscriberFactory
		defer func() {
			PublisherFactory = originalPubFactory
			SubscriberFactory = originalSubFactory
		}()

		mockPub := &mockPublisher{}
		mockSub := &mockSubscriber{}

		PublisherFactory = func(config nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.Equal(t, "nats://localhost:4222", config.URL)
			assert.True(t, config.JetStream.Disabled)
			assert.Len(t, config.NatsOptions, 1)
			return mockPub, nil
		}
		SubscriberFactory = func(config nats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			assert.Equal(t, "workers", config.QueueGroupPrefix)
			assert.True(t, config.JetStream.Disabled)
			return mockSub, nil
		}

		ep := endpoint("nats://localhost:4222", map[string]string{PropertyName: "svc", PropertyQueueGroup: "workers"})
		tr, err := Build(context.Background(), ep, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, mockPub, tr.Publisher)
		assert.Equal(t, mockSub, tr.Subscriber)
	})

	t.Run("requires URL", func(t *testing.T) {
		_, err := Build(context.Background(), endpoint("", nil), watermill.NopLogger{})
		assert.ErrorContains(t, err, "URL is required")
	})

	t.Run("rejects invalid properties", func(t *testing.T) {
		ep := endpoint("nats://localhost:4222", map[string]string{PropertyMaxReconnects: "x"})
		_, err := Build(context.Background(), ep, watermill.NopLogger{})
		assert.Error(t, err)
	})

	t.Run("returns error when publisher factory fails", func(t *testing.T) {
		originalPubFactory := PublisherFactory
		defer func() { PublisherFactory = originalPubFactory }()

		PublisherFactory = func(config nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		_, err := Build(context.Background(), endpoint("nats://localhost:4222", nil), watermill.NopLogger{})

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
		PublisherFactory = func(config nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return pub, nil
		}
		SubscriberFactory = func(config nats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			return nil, errors.New("subscriber error")
		}

		_, err := Build(context.Background(), endpoint("nats://localhost:4222", nil), watermill.NopLogger{})

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
