package broker

import (
	"errors"
	"sort"

	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
)

// MessageServiceKind is the kind of services dispatching publish/subscribe
// messages.
const MessageServiceKind = "Message"

// Service dispatches one category of messages. It owns its destinations and
// the adapter definitions (adapter id to adapter class name) destinations
// create their adapters from.
type Service struct {
	component

	kind   string
	broker *MessageBroker

	destinations       map[string]*Destination
	adapterDefinitions map[string]string
	defaultAdapterID   string
	defaultChannels    []string
}

// NewService creates an unbound service of the given kind.
func NewService(kind string) *Service {
	return &Service{
		component:          newComponent(KindService, categoryFor(KindService, kind)),
		kind:               kind,
		destinations:       make(map[string]*Destination),
		adapterDefinitions: make(map[string]string),
	}
}

// NewMessageService creates an unbound service of kind "Message".
func NewMessageService() *Service {
	return NewService(MessageServiceKind)
}

// Kind returns the message category the service dispatches.
func (s *Service) Kind() string {
	return s.kind
}

// SetID sets the service id. It cannot change once the service is registered
// with a broker or started.
func (s *Service) SetID(id string) error {
	return s.setID(id, s.broker != nil)
}

func (s *Service) IsManaged() bool {
	return s.managedWithin(s.ParentComponent())
}

func (s *Service) ParentComponent() ManagedComponent {
	if s.broker == nil {
		return nil
	}
	return s.broker
}

// SetMessageBroker registers the service with b.
func (s *Service) SetMessageBroker(b *MessageBroker) error {
	if b == nil {
		return errspkg.NewConfigurationError(errspkg.CodeNullComponentProperty,
			"service %q cannot be bound to a null broker", s.id)
	}
	return b.AddService(s)
}

// MessageBroker returns the owning broker, or nil.
func (s *Service) MessageBroker() *MessageBroker {
	return s.broker
}

func (s *Service) logger() loggingpkg.ServiceLogger {
	var base loggingpkg.ServiceLogger
	if s.broker != nil {
		base = s.broker.logger
	}
	return loggingpkg.ForComponent(base, s.LogCategory(), s.id)
}

func (s *Service) adapterRegistry() *AdapterRegistry {
	if s.broker != nil && s.broker.adapters != nil {
		return s.broker.adapters
	}
	return DefaultAdapterRegistry
}

// AddDestination binds d to the service.
func (s *Service) AddDestination(d *Destination) error {
	if d == nil {
		return errspkg.NewConfigurationError(errspkg.CodeNullComponentProperty,
			"service %q cannot register a null destination", s.id)
	}
	return d.SetService(s)
}

// CreateDestination creates a destination of the service's kind, binds it
// and returns it.
func (s *Service) CreateDestination(id string) (*Destination, error) {
	d := newDestination(s.kind)
	if err := d.SetID(id); err != nil {
		return nil, err
	}
	if err := d.SetService(s); err != nil {
		return nil, err
	}
	return d, nil
}

// Destination returns the destination registered under id, or nil.
func (s *Service) Destination(id string) *Destination {
	return s.destinations[id]
}

// Destinations returns the registered destinations ordered by id.
func (s *Service) Destinations() []*Destination {
	out := make([]*Destination, 0, len(s.destinations))
	for _, d := range s.destinations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// RemoveDestination stops the destination registered under id and unbinds
// it. It returns nil when no such destination exists.
func (s *Service) RemoveDestination(id string) (*Destination, error) {
	d, ok := s.destinations[id]
	if !ok {
		return nil, nil
	}
	err := d.Stop()
	delete(s.destinations, id)
	d.service = nil
	return d, err
}

// attach registers d, stopping and unbinding a different destination
// registered under the same id.
func (s *Service) attach(d *Destination) error {
	var err error
	if prev, ok := s.destinations[d.id]; ok && prev != d {
		err = prev.Stop()
		prev.service = nil
	}
	s.destinations[d.id] = d
	return err
}

func (s *Service) detach(d *Destination) {
	if cur, ok := s.destinations[d.id]; ok && cur == d {
		delete(s.destinations, d.id)
	}
}

// RegisterAdapter declares that adapter id is an instance of className.
// The class is resolved when an adapter is created, not here. The last
// registration of an id wins.
func (s *Service) RegisterAdapter(id, className string) error {
	if id == "" {
		return errspkg.NewConfigurationError(errspkg.CodeNullOrEmptyProperty,
			"adapter id cannot be null or empty")
	}
	if className == "" {
		return errspkg.WrapConfigurationError(errspkg.CodeNullOrEmptyProperty, errspkg.ErrAdapterClassEmpty,
			"adapter %q has no class", id)
	}
	s.adapterDefinitions[id] = className
	return nil
}

// UnregisterAdapter removes the definition of id and clears the default
// adapter if it pointed at id.
func (s *Service) UnregisterAdapter(id string) {
	delete(s.adapterDefinitions, id)
	if s.defaultAdapterID == id {
		s.defaultAdapterID = ""
	}
}

// AdapterClass returns the class name registered for id.
func (s *Service) AdapterClass(id string) (string, bool) {
	className, ok := s.adapterDefinitions[id]
	return className, ok
}

// RegisteredAdapters returns a copy of the adapter definitions.
func (s *Service) RegisteredAdapters() map[string]string {
	out := make(map[string]string, len(s.adapterDefinitions))
	for id, className := range s.adapterDefinitions {
		out[id] = className
	}
	return out
}

// SetDefaultAdapter names the adapter created for destinations that start
// without one. The id must already be registered.
func (s *Service) SetDefaultAdapter(id string) error {
	if _, ok := s.adapterDefinitions[id]; !ok {
		return errspkg.NewConfigurationError(errspkg.CodeUnregisteredAdapter,
			"default adapter %q is not registered with service %q", id, s.id)
	}
	s.defaultAdapterID = id
	return nil
}

// DefaultAdapter returns the default adapter id, or "".
func (s *Service) DefaultAdapter() string {
	return s.defaultAdapterID
}

// AddDefaultChannel declares a channel used by destinations that start
// without channels of their own.
func (s *Service) AddDefaultChannel(id string) error {
	if id == "" {
		return errspkg.NewConfigurationError(errspkg.CodeNullOrEmptyProperty,
			"channel id cannot be null or empty")
	}
	for _, ch := range s.defaultChannels {
		if ch == id {
			return nil
		}
	}
	s.defaultChannels = append(s.defaultChannels, id)
	return nil
}

// DefaultChannels returns the default channel ids in declaration order.
func (s *Service) DefaultChannels() []string {
	return append([]string(nil), s.defaultChannels...)
}

// Start starts the service and every destination that is not running yet.
func (s *Service) Start() error {
	if s.started {
		return nil
	}
	if err := s.requireID(); err != nil {
		return err
	}
	s.started = true

	var errs []error
	for _, d := range s.Destinations() {
		if d.started {
			continue
		}
		if err := d.Start(); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger().Info("Service started", loggingpkg.LogFields{"destinations": len(s.destinations)})
	s.broker.notifyStart(s.event(s.IsManaged()))
	return errors.Join(errs...)
}

// Stop stops every destination, then the service.
func (s *Service) Stop() error {
	var errs []error
	for _, d := range s.Destinations() {
		if err := d.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	wasStarted := s.started
	s.started = false
	if wasStarted {
		s.logger().Info("Service stopped", nil)
		s.broker.notifyStop(s.event(s.IsManaged()))
	}
	return errors.Join(errs...)
}
