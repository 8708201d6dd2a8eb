package broker

import (
	"errors"
	"sort"
	"sync"

	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
	"github.com/drblury/brokercore/internal/runtime/ids"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
)

// MessageBroker is the root of the managed component tree. It owns the
// services and the table of known channels.
//
// The broker does not lock its maps. Mutations are expected to run under the
// caller's coarse configuration lock, see Reconfigure.
type MessageBroker struct {
	component

	services        map[string]*Service
	channelSettings map[string]*ChannelSettings

	adapters *AdapterRegistry
	security *SecurityRegistry
	hooks    LifecycleHooks
	logger   loggingpkg.ServiceLogger

	configMu sync.Mutex
}

// Option configures a MessageBroker.
type Option func(*MessageBroker)

// WithID sets the broker id. Brokers without one get a generated id.
func WithID(id string) Option {
	return func(b *MessageBroker) {
		b.id = id
	}
}

// WithManaged sets the root managed flag.
func WithManaged(managed bool) Option {
	return func(b *MessageBroker) {
		b.SetManaged(managed)
	}
}

// WithLogger sets the logger every component of the tree logs through.
func WithLogger(logger loggingpkg.ServiceLogger) Option {
	return func(b *MessageBroker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithAdapterRegistry overrides DefaultAdapterRegistry for adapter creation.
func WithAdapterRegistry(r *AdapterRegistry) Option {
	return func(b *MessageBroker) {
		if r != nil {
			b.adapters = r
		}
	}
}

// WithSecurityRegistry shares a security-constraint registry with the broker.
func WithSecurityRegistry(r *SecurityRegistry) Option {
	return func(b *MessageBroker) {
		if r != nil {
			b.security = r
		}
	}
}

// WithHooks appends lifecycle hooks.
func WithHooks(h LifecycleHooks) Option {
	return func(b *MessageBroker) {
		b.hooks = b.hooks.Merge(h)
	}
}

// New creates a stopped, managed broker.
func New(opts ...Option) *MessageBroker {
	b := &MessageBroker{
		component:       newComponent(KindBroker, categoryFor(KindBroker, "")),
		services:        make(map[string]*Service),
		channelSettings: make(map[string]*ChannelSettings),
		adapters:        DefaultAdapterRegistry,
		security:        NewSecurityRegistry(),
		logger:          loggingpkg.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.id == "" {
		b.id = ids.NewBrokerID()
	}
	return b
}

// SetID renames the broker. The id cannot change while the broker runs.
func (b *MessageBroker) SetID(id string) error {
	return b.setID(id, false)
}

// IsManaged returns the root's own flag.
func (b *MessageBroker) IsManaged() bool {
	return !b.unmanaged
}

func (b *MessageBroker) ParentComponent() ManagedComponent {
	return nil
}

// Logger returns the broker-wide logger.
func (b *MessageBroker) Logger() loggingpkg.ServiceLogger {
	return b.logger
}

// AddHooks appends lifecycle hooks to the broker.
func (b *MessageBroker) AddHooks(h LifecycleHooks) {
	b.hooks = b.hooks.Merge(h)
}

// Adapters returns the adapter-class registry used by CreateAdapter.
func (b *MessageBroker) Adapters() *AdapterRegistry {
	return b.adapters
}

// SecurityConstraints returns the registry security references resolve
// against.
func (b *MessageBroker) SecurityConstraints() *SecurityRegistry {
	return b.security
}

// SecurityConstraint looks up ref in the broker's registry and returns nil
// when it is not known.
func (b *MessageBroker) SecurityConstraint(ref string) *SecurityConstraint {
	sc, _ := b.security.Lookup(ref)
	return sc
}

// Reconfigure runs fn while holding the broker's configuration lock. Callers
// that mutate the tree from several goroutines must funnel the mutations
// through it.
func (b *MessageBroker) Reconfigure(fn func(*MessageBroker) error) error {
	b.configMu.Lock()
	defer b.configMu.Unlock()
	return fn(b)
}

// AddService registers s under its id and sets its back-reference. A
// service already registered under the same id is stopped and detached; its
// stop error is returned, s is registered regardless.
func (b *MessageBroker) AddService(s *Service) error {
	if s == nil {
		return errspkg.NewConfigurationError(errspkg.CodeNullComponentProperty,
			"broker %q cannot register a null service", b.id)
	}
	if err := s.requireID(); err != nil {
		return err
	}
	var err error
	if prev, ok := b.services[s.id]; ok && prev != s {
		err = prev.Stop()
		prev.broker = nil
	}
	if s.broker != nil && s.broker != b {
		s.broker.detachService(s)
	}
	b.services[s.id] = s
	s.broker = b
	b.logger.Debug("Service registered", loggingpkg.LogFields{
		"broker_id":  b.id,
		"service_id": s.id,
	})
	return err
}

// RemoveService stops the service registered under id and detaches it. It
// returns nil when no such service exists.
func (b *MessageBroker) RemoveService(id string) (*Service, error) {
	s, ok := b.services[id]
	if !ok {
		return nil, nil
	}
	err := s.Stop()
	delete(b.services, id)
	s.broker = nil
	return s, err
}

func (b *MessageBroker) detachService(s *Service) {
	if cur, ok := b.services[s.id]; ok && cur == s {
		delete(b.services, s.id)
	}
}

// Service returns the service registered under id, or nil.
func (b *MessageBroker) Service(id string) *Service {
	return b.services[id]
}

// Services returns the registered services ordered by id.
func (b *MessageBroker) Services() []*Service {
	out := make([]*Service, 0, len(b.services))
	for _, s := range b.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// SetChannelSettings replaces the table of known channels. Nil values mark
// channel ids that are known but not resolved yet.
func (b *MessageBroker) SetChannelSettings(settings map[string]*ChannelSettings) {
	b.channelSettings = make(map[string]*ChannelSettings, len(settings))
	for id, cs := range settings {
		b.channelSettings[id] = cs
	}
}

// AddChannelSettings declares one channel. cs may be nil.
func (b *MessageBroker) AddChannelSettings(id string, cs *ChannelSettings) error {
	if id == "" {
		return errspkg.NewConfigurationError(errspkg.CodeNullOrEmptyProperty,
			"channel id cannot be null or empty")
	}
	if cs != nil && cs.ID == "" {
		cs.ID = id
	}
	b.channelSettings[id] = cs
	return nil
}

// ChannelSettings returns the settings for id. The second result reports
// whether the id is known at all; known ids may carry nil settings.
func (b *MessageBroker) ChannelSettings(id string) (*ChannelSettings, bool) {
	cs, ok := b.channelSettings[id]
	return cs, ok
}

// HasChannel reports whether id is a key of the channel table.
func (b *MessageBroker) HasChannel(id string) bool {
	_, ok := b.channelSettings[id]
	return ok
}

// ChannelIDs returns the known channel ids in sorted order.
func (b *MessageBroker) ChannelIDs() []string {
	out := make([]string, 0, len(b.channelSettings))
	for id := range b.channelSettings {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Start marks the broker started and then starts every stopped service.
// Starting the broker first makes its destinations validate their channels.
// A failing service does not prevent its siblings from starting; all
// failures are returned joined.
func (b *MessageBroker) Start() error {
	if b.started {
		return nil
	}
	b.started = true
	b.logger.Info("Starting message broker", loggingpkg.LogFields{
		"broker_id": b.id,
		"services":  len(b.services),
		"channels":  len(b.channelSettings),
	})

	var errs []error
	for _, s := range b.Services() {
		if s.started {
			continue
		}
		if err := s.Start(); err != nil {
			errs = append(errs, err)
		}
	}
	b.notifyStart(b.event(b.IsManaged()))

	err := errors.Join(errs...)
	if err != nil {
		b.logger.Error("Message broker started with errors", err, loggingpkg.LogFields{"broker_id": b.id})
	}
	return err
}

// Stop stops every service and then the broker itself.
func (b *MessageBroker) Stop() error {
	var errs []error
	for _, s := range b.Services() {
		if err := s.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	wasStarted := b.started
	b.started = false
	if wasStarted {
		b.logger.Info("Message broker stopped", loggingpkg.LogFields{"broker_id": b.id})
		b.notifyStop(b.event(b.IsManaged()))
	}
	return errors.Join(errs...)
}
