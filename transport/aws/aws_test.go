package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/brokercore/transport"
)

func endpoint(url string, props map[string]string) transport.StaticEndpoint {
	return transport.StaticEndpoint{ID: "queue", Type: TransportName, URL: url, Properties: props}
}

// stubAWS replaces the loader and resolver and restores every factory.
func stubAWS(t *testing.T) *[2]string {
	t.Helper()
	originalConfigLoader := DefaultConfigLoader
	originalTopicResolver := TopicResolverFactory
	originalPubFactory := PublisherFactory
	originalSubFactory := SubscriberFactory
	t.Cleanup(func() {
		DefaultConfigLoader = originalConfigLoader
		TopicResolverFactory = originalTopicResolver
		PublisherFactory = originalPubFactory
		SubscriberFactory = originalSubFactory
	})

	resolved := &[2]string{}
	DefaultConfigLoader = func(ctx context.Context, opts ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	TopicResolverFactory = func(accountID, region string) (*sns.GenerateArnTopicResolver, error) {
		resolved[0], resolved[1] = accountID, region
		return &sns.GenerateArnTopicResolver{}, nil
	}
	return resolved
}

func TestRegistered(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(TransportName))
	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "aws", caps.Name)
	assert.True(t, caps.SupportsNativeDLQ)
	assert.True(t, caps.SupportsTracing)
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities()
	assert.Equal(t, transport.AWSCapabilities, caps)
	assert.Equal(t, "aws", caps.Name)
}

func TestBuild(t *testing.T) {
	t.Run("creates transport with mocked factories", func(t *testing.T) {
		resolved := stubAWS(t)
		mockPub := &mockPublisher{}
		mockSub := &mockSubscriber{}

		PublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.Equal(t, "eu-west-1", cfg.AWSConfig.Region)
			assert.Nil(t, cfg.AWSConfig.BaseEndpoint)
			assert.Empty(t, cfg.OptFns)
			return mockPub, nil
		}
		SubscriberFactory = func(cfg sns.SubscriberConfig, sqsCfg sqs.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			assert.NotNil(t, cfg.GenerateSqsQueueName)
			assert.Empty(t, sqsCfg.OptFns)
			return mockSub, nil
		}

		ep := endpoint("", map[string]string{
			PropertyRegion:    "eu-west-1",
			PropertyAccountID: "123456789012",
		})
		tr, err := Build(context.Background(), ep, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, mockPub, tr.Publisher)
		assert.Equal(t, mockSub, tr.Subscriber)
		assert.Equal(t, [2]string{"123456789012", "eu-west-1"}, *resolved)
	})

	t.Run("applies custom endpoint", func(t *testing.T) {
		resolved := stubAWS(t)

		PublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			require.NotNil(t, cfg.AWSConfig.BaseEndpoint)
			assert.Equal(t, "http://localhost:4566", *cfg.AWSConfig.BaseEndpoint)
			assert.Len(t, cfg.OptFns, 1)
			return &mockPublisher{}, nil
		}
		SubscriberFactory = func(cfg sns.SubscriberConfig, sqsCfg sqs.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			assert.Len(t, cfg.OptFns, 1)
			assert.Len(t, sqsCfg.OptFns, 1)
			return &mockSubscriber{}, nil
		}

		_, err := Build(context.Background(), endpoint("http://localhost:4566", nil), watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, [2]string{localstackAccountID, "us-east-1"}, *resolved)
	})

	t.Run("returns error when config loader fails", func(t *testing.T) {
		stubAWS(t)
		DefaultConfigLoader = func(ctx context.Context, opts ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, errors.New("config error")
		}

		_, err := Build(context.Background(), endpoint("", map[string]string{PropertyRegion: "us-east-1"}), watermill.NopLogger{})

		assert.ErrorContains(t, err, "config error")
	})

	t.Run("returns error for unparsable endpoint", func(t *testing.T) {
		stubAWS(t)

		_, err := Build(context.Background(), endpoint("://bad", nil), watermill.NopLogger{})

		assert.ErrorContains(t, err, "failed to parse endpoint")
	})

	t.Run("returns error when topic resolver fails", func(t *testing.T) {
		stubAWS(t)
		TopicResolverFactory = func(accountID, region string) (*sns.GenerateArnTopicResolver, error) {
			return nil, errors.New("resolver error")
		}

		_, err := Build(context.Background(), endpoint("", nil), watermill.NopLogger{})

		assert.ErrorContains(t, err, "resolver error")
	})

	t.Run("returns error when publisher factory fails", func(t *testing.T) {
		stubAWS(t)
		PublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		_, err := Build(context.Background(), endpoint("", map[string]string{PropertyAccountID: "123456789012"}), watermill.NopLogger{})

		assert.ErrorContains(t, err, "publisher error")
	})

	t.Run("closes publisher when subscriber factory fails", func(t *testing.T) {
		stubAWS(t)
		pub := &mockPublisher{}
		PublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return pub, nil
		}
		SubscriberFactory = func(cfg sns.SubscriberConfig, sqsCfg sqs.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			return nil, errors.New("subscriber error")
		}

		_, err := Build(context.Background(), endpoint("", map[string]string{PropertyAccountID: "123456789012"}), watermill.NopLogger{})

		assert.ErrorContains(t, err, "subscriber error")
		assert.True(t, pub.closed)
	})
}

func TestResolveAccountAndRegion(t *testing.T) {
	t.Run("uses channel properties", func(t *testing.T) {
		ep := endpoint("", map[string]string{PropertyAccountID: "'123456789012'", PropertyRegion: "us-west-2"})
		accountID, region := resolveAccountAndRegion(ep, watermill.NopLogger{}, "us-east-1")
		assert.Equal(t, "123456789012", accountID)
		assert.Equal(t, "us-west-2", region)
	})

	t.Run("uses fallback region when property empty", func(t *testing.T) {
		ep := endpoint("", map[string]string{PropertyAccountID: "123456789012"})
		accountID, region := resolveAccountAndRegion(ep, watermill.NopLogger{}, "us-east-1")
		assert.Equal(t, "123456789012", accountID)
		assert.Equal(t, "us-east-1", region)
	})

	t.Run("uses localstack default when endpoint set and account empty", func(t *testing.T) {
		accountID, _ := resolveAccountAndRegion(endpoint("http://localhost:4566", nil), watermill.NopLogger{}, "us-east-1")
		assert.Equal(t, localstackAccountID, accountID)
	})

	t.Run("replaces malformed account on localstack", func(t *testing.T) {
		ep := endpoint("http://localhost:4566", map[string]string{PropertyAccountID: "42"})
		accountID, _ := resolveAccountAndRegion(ep, watermill.NopLogger{}, "us-east-1")
		assert.Equal(t, localstackAccountID, accountID)
	})

	t.Run("keeps malformed account without endpoint", func(t *testing.T) {
		ep := endpoint("", map[string]string{PropertyAccountID: "42"})
		accountID, _ := resolveAccountAndRegion(ep, watermill.NopLogger{}, "us-east-1")
		assert.Equal(t, "42", accountID)
	})
}

func TestAwsEndpointURL(t *testing.T) {
	u, err := awsEndpointURL(endpoint("", nil))
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = awsEndpointURL(endpoint("http://localhost:4566", nil))
	require.NoError(t, err)
	assert.Equal(t, "localhost:4566", u.Host)
}

func TestStaticCredentialsProvider(t *testing.T) {
	creds, err := staticCredentialsProvider("id", "secret").Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
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
