package brokercore

import (
	"github.com/drblury/brokercore/internal/runtime/bootstrap"
	brokerpkg "github.com/drblury/brokercore/internal/runtime/broker"
	configpkg "github.com/drblury/brokercore/internal/runtime/config"
	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
	idspkg "github.com/drblury/brokercore/internal/runtime/ids"
	jsoncodec "github.com/drblury/brokercore/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
	"github.com/drblury/brokercore/internal/runtime/observability"
	newtransport "github.com/drblury/brokercore/transport"
)

type (
	ManagedComponent = brokerpkg.ManagedComponent
	ComponentKind    = brokerpkg.ComponentKind
	MessageBroker    = brokerpkg.MessageBroker
	Service          = brokerpkg.Service
	Destination      = brokerpkg.Destination
	ServiceAdapter   = brokerpkg.ServiceAdapter
	AdapterBase      = brokerpkg.AdapterBase
	EchoAdapter      = brokerpkg.EchoAdapter
	Option           = brokerpkg.Option

	AdapterFactory     = brokerpkg.AdapterFactory
	AdapterRegistry    = brokerpkg.AdapterRegistry
	SecurityConstraint = brokerpkg.SecurityConstraint
	SecurityRegistry   = brokerpkg.SecurityRegistry

	ChannelSettings  = brokerpkg.ChannelSettings
	NetworkSettings  = brokerpkg.NetworkSettings
	ThrottleSettings = brokerpkg.ThrottleSettings
	ThrottlePolicy   = brokerpkg.ThrottlePolicy

	LifecycleEvent = brokerpkg.LifecycleEvent
	LifecycleHooks = brokerpkg.LifecycleHooks
	Metrics        = observability.Metrics

	BrokerSnapshot      = brokerpkg.BrokerSnapshot
	ServiceSnapshot     = brokerpkg.ServiceSnapshot
	DestinationSnapshot = brokerpkg.DestinationSnapshot
	AdapterSnapshot     = brokerpkg.AdapterSnapshot

	Config            = configpkg.Config
	ChannelConfig     = configpkg.ChannelConfig
	ServiceConfig     = configpkg.ServiceConfig
	DestinationConfig = configpkg.DestinationConfig

	ConfigurationError = errspkg.ConfigurationError

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	TransportBuilder      = newtransport.Builder
	TransportEndpoint     = newtransport.Endpoint
	TransportRegistry     = newtransport.Registry
	TransportCapabilities = newtransport.Capabilities
)

var (
	NewMessageBroker       = brokerpkg.New
	NewService             = brokerpkg.NewService
	NewMessageService      = brokerpkg.NewMessageService
	NewDestination         = brokerpkg.NewDestination
	NewMessageDestination  = brokerpkg.NewMessageDestination
	NewAdapterBase         = brokerpkg.NewAdapterBase
	NewEchoAdapter         = brokerpkg.NewEchoAdapter
	NewNetworkSettings     = brokerpkg.NewNetworkSettings
	NewSecurityConstraint  = brokerpkg.NewSecurityConstraint
	NewAdapterRegistry     = brokerpkg.NewAdapterRegistry
	NewSecurityRegistry    = brokerpkg.NewSecurityRegistry
	RegisterAdapterClass   = brokerpkg.RegisterAdapterClass
	ParseThrottlePolicy    = brokerpkg.ParseThrottlePolicy
	DefaultAdapterRegistry = brokerpkg.DefaultAdapterRegistry

	WithID               = brokerpkg.WithID
	WithManaged          = brokerpkg.WithManaged
	WithLogger           = brokerpkg.WithLogger
	WithAdapterRegistry  = brokerpkg.WithAdapterRegistry
	WithSecurityRegistry = brokerpkg.WithSecurityRegistry
	WithHooks            = brokerpkg.WithHooks

	NewContext        = brokerpkg.NewContext
	BrokerFromContext = brokerpkg.FromContext
	NewFromConfig     = bootstrap.New
	ApplyConfig       = bootstrap.Apply
	LoadConfig        = configpkg.Load
	ParseConfig       = configpkg.Parse
	ValidateConfig    = configpkg.ValidateConfig

	LoggingHooks        = observability.LoggingHooks
	TracingHooks        = observability.TracingHooks
	NewMetrics          = observability.NewMetrics
	NewManagedCollector = observability.NewManagedCollector

	DefaultTransportRegistry = newtransport.DefaultRegistry
	RegisterTransport        = newtransport.Register
	BuildTransport           = newtransport.Build
	GetCapabilities          = newtransport.GetCapabilities

	NewConfigurationError = errspkg.NewConfigurationError
	CodeOf                = errspkg.CodeOf
	HasCode               = errspkg.HasCode

	ErrConfigRequired    = errspkg.ErrConfigRequired
	ErrBrokerRequired    = errspkg.ErrBrokerRequired
	ErrLoggerRequired    = errspkg.ErrLoggerRequired
	ErrUnknownTransport  = errspkg.ErrUnknownTransport
	ErrEndpointRequired  = errspkg.ErrEndpointRequired
	ErrAdapterClassEmpty = errspkg.ErrAdapterClassEmpty
	ErrUnknownAdapter    = errspkg.ErrUnknownAdapter

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NopLogger            = loggingpkg.NopLogger

	NewBrokerID = idspkg.NewBrokerID

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
)

// Stable configuration error numbers.
const (
	CodeNullOrEmptyProperty        = errspkg.CodeNullOrEmptyProperty
	CodePropertyChangeAfterStartup = errspkg.CodePropertyChangeAfterStartup
	CodeNullComponentProperty      = errspkg.CodeNullComponentProperty
	CodeNoService                  = errspkg.CodeNoService
	CodeUnregisteredAdapter        = errspkg.CodeUnregisteredAdapter
	CodeUnknownChannel             = errspkg.CodeUnknownChannel
	CodeInvalidSetting             = errspkg.CodeInvalidSetting
)

const (
	KindBroker      = brokerpkg.KindBroker
	KindService     = brokerpkg.KindService
	KindDestination = brokerpkg.KindDestination
	KindAdapter     = brokerpkg.KindAdapter

	MessageServiceKind = brokerpkg.MessageServiceKind
	EchoAdapterClass   = brokerpkg.EchoAdapterClass

	AuthMethodBasic  = brokerpkg.AuthMethodBasic
	AuthMethodCustom = brokerpkg.AuthMethodCustom

	ThrottleNone     = brokerpkg.ThrottleNone
	ThrottleError    = brokerpkg.ThrottleError
	ThrottleIgnore   = brokerpkg.ThrottleIgnore
	ThrottleBuffer   = brokerpkg.ThrottleBuffer
	ThrottleConflate = brokerpkg.ThrottleConflate
)
