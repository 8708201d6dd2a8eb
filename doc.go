// Package brokercore manages the lifecycle of a message broker's component
// tree: a MessageBroker owns Services, each Service owns Destinations, and
// each Destination is bound to channels and to one ServiceAdapter.
//
// Every component can be started and stopped on its own. Starting a parent
// starts its stopped children; stopping a parent always asks its children to
// stop. A component is "managed" only while it and all its ancestors are
// managed, so observability layers can skip whole subtrees with one flag.
//
// Structural mistakes (a destination without a service, an adapter id the
// service does not define, a channel the broker does not know) are reported
// as *ConfigurationError values carrying stable numeric codes, see
// CodeNullOrEmptyProperty through CodeInvalidSetting.
//
// # Configuration
//
// A broker can be wired by hand or from YAML:
//
//	cfg, err := brokercore.LoadConfig("broker.yaml")
//	b, ctx, err := brokercore.NewFromConfig(context.Background(), cfg)
//	err = b.Start()
//
// # Transports
//
// Channel settings name a transport type. The transport packages register
// themselves on import (import transport/transports for all of them):
//   - channel: in-memory Go channels, shared per channel id
//   - kafka: URL is a comma-separated broker list
//   - rabbitmq: AMQP URI, durable queues by default
//   - nats: NATS Core
//   - http: webhooks in and out
//   - aws: SNS/SQS with LocalStack support
//
// The BridgeAdapter class in adapters/bridge opens those endpoints while its
// destination runs.
//
// # Hooks
//
// LifecycleHooks observe every start, stop and failure. LoggingHooks,
// TracingHooks and NewMetrics provide ready-made implementations, and
// NewManagedCollector exports the managed part of a tree to Prometheus.
package brokercore
