// Package aws provides an AWS SNS/SQS transport. The endpoint URL, when set,
// overrides the AWS service endpoint (LocalStack and similar).
package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	amazonsqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	"github.com/drblury/brokercore/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "aws"

// Endpoint properties understood by Build.
const (
	PropertyRegion          = "region"
	PropertyAccountID       = "account_id"
	PropertyAccessKeyID     = "access_key_id"
	PropertySecretAccessKey = "secret_access_key"
)

const (
	localstackAccountID = "000000000000"
	awsAccountIDLength  = 12
)

// DefaultConfigLoader allows overriding the AWS config loader for testing.
var DefaultConfigLoader = awsconfig.LoadDefaultConfig

// TopicResolverFactory allows overriding the topic resolver creation for testing.
var TopicResolverFactory = sns.NewGenerateArnTopicResolver

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return sns.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg sns.SubscriberConfig, sqsCfg sqs.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return sns.NewSubscriber(cfg, sqsCfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.AWSCapabilities)
}

// Build creates a new AWS SNS/SQS transport.
func Build(ctx context.Context, ep transport.Endpoint, logger watermill.LoggerAdapter) (transport.Transport, error) {
	endpoint, err := awsEndpointURL(ep)
	if err != nil {
		return transport.Transport{}, err
	}
	awsCfg, err := createAWSConfig(ctx, ep, endpoint, logger)
	if err != nil {
		return transport.Transport{}, err
	}
	logger.Info("Created AWS config", watermill.LogFields{
		"channel":         ep.GetID(),
		"region":          awsCfg.Region,
		"custom_endpoint": hasCustomEndpoint(awsCfg),
	})

	accountID, region := resolveAccountAndRegion(ep, logger, awsCfg.Region)
	topicResolver, err := createTopicResolver(accountID, region, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	publisher, err := PublisherFactory(buildPublisherConfig(awsCfg, topicResolver), logger)
	if err != nil {
		return transport.Transport{}, err
	}

	snsCfg, sqsCfg := buildSubscriberConfig(awsCfg, topicResolver)
	subscriber, err := SubscriberFactory(snsCfg, sqsCfg, logger)
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
	return transport.AWSCapabilities
}

func createAWSConfig(ctx context.Context, ep transport.Endpoint, endpoint *url.URL, logger watermill.LoggerAdapter) (*aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	region := ep.GetProperty(PropertyRegion)
	accessKey := ep.GetProperty(PropertyAccessKeyID)
	secretKey := ep.GetProperty(PropertySecretAccessKey)

	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if accessKey != "" && secretKey != "" {
		logger.Info("Using static AWS credentials from channel properties", watermill.LogFields{"channel": ep.GetID()})
		opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentialsProvider(accessKey, secretKey)))
	}

	awsCfg, err := DefaultConfigLoader(ctx, opts...)
	if err != nil {
		logger.Error("Failed to load AWS default config", err, watermill.LogFields{
			"channel":          ep.GetID(),
			"requested_region": region,
		})
		return nil, err
	}

	// The loader may ignore options when stubbed.
	if region != "" {
		awsCfg.Region = region
	}
	if endpoint != nil {
		awsCfg.BaseEndpoint = aws.String(endpoint.String())
	}

	return &awsCfg, nil
}

func makeSqsQueueNameGenerator() func(context.Context, sns.TopicArn) (string, error) {
	return func(ctx context.Context, snsTopic sns.TopicArn) (string, error) {
		topic, err := sns.ExtractTopicNameFromTopicArn(snsTopic)
		if err != nil {
			return "", err
		}
		return string(topic), nil
	}
}

func buildPublisherConfig(awsCfg *aws.Config, topicResolver sns.TopicResolver) sns.PublisherConfig {
	cfg := sns.PublisherConfig{
		TopicResolver: topicResolver,
		AWSConfig:     *awsCfg,
		Marshaler:     sns.DefaultMarshalerUnmarshaler{},
	}
	if hasCustomEndpoint(awsCfg) {
		endpoint := *awsCfg.BaseEndpoint
		cfg.OptFns = []func(*amazonsns.Options){
			func(o *amazonsns.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			},
		}
	}
	return cfg
}

func buildSubscriberConfig(awsCfg *aws.Config, topicResolver sns.TopicResolver) (sns.SubscriberConfig, sqs.SubscriberConfig) {
	snsCfg := sns.SubscriberConfig{
		AWSConfig:            *awsCfg,
		TopicResolver:        topicResolver,
		GenerateSqsQueueName: makeSqsQueueNameGenerator(),
	}
	sqsCfg := sqs.SubscriberConfig{
		AWSConfig: *awsCfg,
	}
	if hasCustomEndpoint(awsCfg) {
		// BaseEndpoint was produced by url.URL.String, so it parses.
		parsed, _ := url.Parse(*awsCfg.BaseEndpoint)
		snsCfg.OptFns = []func(*amazonsns.Options){
			amazonsns.WithEndpointResolverV2(sns.OverrideEndpointResolver{
				Endpoint: smithyendpoints.Endpoint{URI: *parsed},
			}),
		}
		sqsCfg.OptFns = []func(*amazonsqs.Options){
			amazonsqs.WithEndpointResolverV2(sqs.OverrideEndpointResolver{
				Endpoint: smithyendpoints.Endpoint{URI: *parsed},
			}),
		}
	}
	return snsCfg, sqsCfg
}

func resolveAccountAndRegion(ep transport.Endpoint, logger watermill.LoggerAdapter, fallbackRegion string) (string, string) {
	accountID := strings.Trim(ep.GetProperty(PropertyAccountID), "\"' ")
	region := ep.GetProperty(PropertyRegion)
	if region == "" {
		region = fallbackRegion
	}

	localstack := ep.GetURL() != ""
	if accountID == "" && localstack {
		accountID = localstackAccountID
		logger.Info("AWS account ID empty; using LocalStack default", watermill.LogFields{"accountID": accountID})
		return accountID, region
	}

	if accountID != "" && len(accountID) != awsAccountIDLength && localstack {
		logger.Info("Invalid AWS account ID; falling back to LocalStack default", watermill.LogFields{"accountID": accountID})
		accountID = localstackAccountID
	}

	return accountID, region
}

func createTopicResolver(accountID, region string, logger watermill.LoggerAdapter) (sns.TopicResolver, error) {
	topicResolver, err := TopicResolverFactory(accountID, region)
	if err != nil {
		logger.Error("Failed to create SNS topic resolver", err, watermill.LogFields{
			"accountID": accountID,
			"region":    region,
		})
		return nil, err
	}
	return topicResolver, nil
}

func awsEndpointURL(ep transport.Endpoint) (*url.URL, error) {
	if ep.GetURL() == "" {
		return nil, nil
	}
	parsedURL, err := url.Parse(ep.GetURL())
	if err != nil {
		return nil, fmt.Errorf("aws channel %q: failed to parse endpoint: %w", ep.GetID(), err)
	}
	return parsedURL, nil
}

func hasCustomEndpoint(cfg *aws.Config) bool {
	return cfg != nil && cfg.BaseEndpoint != nil && *cfg.BaseEndpoint != ""
}

func staticCredentialsProvider(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		}, nil
	})
}
