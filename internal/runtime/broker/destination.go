package broker

import (
	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
)

// Destination is a named message endpoint. It is bound to one service, one
// optional adapter and a list of channel ids, and carries its settings.
type Destination struct {
	component

	service *Service
	adapter ServiceAdapter

	channels              []string
	networkSettings       *NetworkSettings
	securityConstraint    *SecurityConstraint
	securityConstraintRef string
	extraProperties       map[string]string
}

// NewDestination creates an unbound destination without an id.
func NewDestination() *Destination {
	return newDestination("")
}

// NewMessageDestination creates an unbound destination for a message service.
func NewMessageDestination() *Destination {
	return newDestination(MessageServiceKind)
}

func newDestination(kind string) *Destination {
	return &Destination{
		component: newComponent(KindDestination, categoryFor(KindDestination, kind)),
	}
}

// SetID sets the destination id. It cannot change once the destination is
// bound to a service or started.
func (d *Destination) SetID(id string) error {
	return d.setID(id, d.service != nil)
}

// IsManaged is true only if the destination and all of its ancestors are
// managed.
func (d *Destination) IsManaged() bool {
	return d.managedWithin(d.ParentComponent())
}

func (d *Destination) ParentComponent() ManagedComponent {
	if d.service == nil {
		return nil
	}
	return d.service
}

func (d *Destination) messageBroker() *MessageBroker {
	if d.service == nil {
		return nil
	}
	return d.service.broker
}

func (d *Destination) logger() loggingpkg.ServiceLogger {
	var base loggingpkg.ServiceLogger
	if b := d.messageBroker(); b != nil {
		base = b.logger
	}
	return loggingpkg.ForComponent(base, d.LogCategory(), d.id)
}

// SetService binds the destination to s and registers it in s under the
// destination id. A different destination registered there is stopped and
// unbound; its stop error is returned after the binding is made. A
// destination can not be detached by passing nil.
func (d *Destination) SetService(s *Service) error {
	if s == nil {
		return errspkg.NewConfigurationError(errspkg.CodeNullComponentProperty,
			"destination %q cannot be bound to a null service", d.id)
	}
	if err := d.requireID(); err != nil {
		return err
	}
	if d.service != nil && d.service != s {
		d.service.detach(d)
	}
	err := s.attach(d)
	d.service = s
	return err
}

// Service returns the bound service, or nil.
func (d *Destination) Service() *Service {
	return d.service
}

// SetAdapter binds a to the destination. Nil clears the binding. A displaced
// adapter keeps running; use ReplaceAdapter to get hold of it.
func (d *Destination) SetAdapter(a ServiceAdapter) {
	d.ReplaceAdapter(a)
}

// ReplaceAdapter binds a and returns the adapter it displaced, or nil. The
// displaced adapter is unbound but not stopped; stopping it is up to the
// caller.
func (d *Destination) ReplaceAdapter(a ServiceAdapter) ServiceAdapter {
	prev := d.adapter
	if prev == a {
		return nil
	}
	if prev != nil && prev.Destination() == d {
		prev.SetDestination(nil)
	}
	d.adapter = a
	if a != nil {
		a.SetDestination(d)
	}
	if prev != nil && prev.IsStarted() {
		d.logger().Debug("Displaced adapter is still running", loggingpkg.LogFields{"adapter_id": prev.ID()})
	}
	return prev
}

// Adapter returns the bound adapter, or nil.
func (d *Destination) Adapter() ServiceAdapter {
	return d.adapter
}

// CreateAdapter instantiates the adapter registered under adapterID with the
// bound service, names it adapterID and binds it. Every resolution or
// construction failure is reported as UnregisteredAdapter.
func (d *Destination) CreateAdapter(adapterID string) (ServiceAdapter, error) {
	if err := d.requireID(); err != nil {
		return nil, err
	}
	if d.service == nil {
		return nil, errspkg.NewConfigurationError(errspkg.CodeNoService,
			"destination %q must be bound to a service before creating adapter %q", d.id, adapterID)
	}
	className, ok := d.service.adapterDefinitions[adapterID]
	if !ok {
		return nil, errspkg.NewConfigurationError(errspkg.CodeUnregisteredAdapter,
			"adapter %q is not registered with service %q", adapterID, d.service.id)
	}
	a, err := d.service.adapterRegistry().New(className)
	if err != nil {
		return nil, errspkg.WrapConfigurationError(errspkg.CodeUnregisteredAdapter, err,
			"adapter %q of class %q cannot be created", adapterID, className)
	}
	if err := a.SetID(adapterID); err != nil {
		return nil, errspkg.WrapConfigurationError(errspkg.CodeUnregisteredAdapter, err,
			"adapter %q of class %q cannot be named", adapterID, className)
	}
	d.SetAdapter(a)
	d.logger().Debug("Adapter created", loggingpkg.LogFields{
		"adapter_id":    adapterID,
		"adapter_class": className,
	})
	return a, nil
}

// AddChannel appends channelID unless it is already present. The add is
// structural: unknown ids are accepted here and checked when the destination
// starts under a started broker.
func (d *Destination) AddChannel(channelID string) error {
	if err := d.requireID(); err != nil {
		return err
	}
	if channelID == "" {
		return errspkg.NewConfigurationError(errspkg.CodeNullOrEmptyProperty,
			"destination %q cannot add a channel with an empty id", d.id)
	}
	if d.hasChannel(channelID) {
		return nil
	}
	d.channels = append(d.channels, channelID)
	if b := d.messageBroker(); b != nil && b.started && !b.HasChannel(channelID) {
		d.logger().Debug("Channel not known to the running broker yet", loggingpkg.LogFields{"channel_id": channelID})
	}
	return nil
}

// RemoveChannel removes channelID and reports whether it was present.
func (d *Destination) RemoveChannel(channelID string) bool {
	for i, ch := range d.channels {
		if ch == channelID {
			d.channels = append(d.channels[:i], d.channels[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Destination) hasChannel(channelID string) bool {
	for _, ch := range d.channels {
		if ch == channelID {
			return true
		}
	}
	return false
}

// Channels returns the channel ids in registration order.
func (d *Destination) Channels() []string {
	return append([]string(nil), d.channels...)
}

// ValidateChannels checks every channel id against the broker's channel
// table. Only a reachable, started broker is consulted; before that point
// channels may be declared ahead of the broker knowing them.
func (d *Destination) ValidateChannels() error {
	b := d.messageBroker()
	if b == nil || !b.started {
		return nil
	}
	var unknown []string
	for _, ch := range d.channels {
		if !b.HasChannel(ch) {
			unknown = append(unknown, ch)
		}
	}
	if len(unknown) > 0 {
		return errspkg.NewConfigurationError(errspkg.CodeUnknownChannel,
			"destination %q references channels %v unknown to broker %q", d.id, unknown, b.id)
	}
	return nil
}

// SetNetworkSettings stores ns as is.
func (d *Destination) SetNetworkSettings(ns *NetworkSettings) {
	d.networkSettings = ns
}

// NetworkSettings returns the stored settings, or nil.
func (d *Destination) NetworkSettings() *NetworkSettings {
	return d.networkSettings
}

// SetSecurityConstraint stores sc directly and drops any pending reference.
func (d *Destination) SetSecurityConstraint(sc *SecurityConstraint) {
	d.securityConstraint = sc
	d.securityConstraintRef = ""
	if sc != nil {
		d.securityConstraintRef = sc.ID
	}
}

// SetSecurityConstraintRef resolves ref through the broker's registry. While
// the broker is unreachable or not started, or the ref is unknown, the
// constraint stays nil; resolution is retried when the destination starts.
func (d *Destination) SetSecurityConstraintRef(ref string) {
	d.securityConstraintRef = ref
	d.securityConstraint = d.resolveSecurityConstraint(ref)
}

func (d *Destination) resolveSecurityConstraint(ref string) *SecurityConstraint {
	if ref == "" {
		return nil
	}
	b := d.messageBroker()
	if b == nil || !b.started {
		return nil
	}
	return b.SecurityConstraint(ref)
}

// SecurityConstraintRef returns the reference id, resolved or not.
func (d *Destination) SecurityConstraintRef() string {
	return d.securityConstraintRef
}

// SecurityConstraint returns the resolved constraint, or nil.
func (d *Destination) SecurityConstraint() *SecurityConstraint {
	return d.securityConstraint
}

// AddExtraProperty stores value under key on this destination instance.
func (d *Destination) AddExtraProperty(key, value string) {
	if d.extraProperties == nil {
		d.extraProperties = make(map[string]string)
	}
	d.extraProperties[key] = value
}

// ExtraProperty returns the value stored under key and whether it was set.
func (d *Destination) ExtraProperty(key string) (string, bool) {
	v, ok := d.extraProperties[key]
	return v, ok
}

// ExtraProperties returns a copy of the property bag.
func (d *Destination) ExtraProperties() map[string]string {
	out := make(map[string]string, len(d.extraProperties))
	for k, v := range d.extraProperties {
		out[k] = v
	}
	return out
}

// Start completes the destination's wiring and starts its adapter:
// service default channels and default adapter fill in what is missing,
// channels are validated against a started broker, a pending security
// reference is resolved again. On error the destination stays stopped.
func (d *Destination) Start() error {
	if d.started {
		return nil
	}
	if err := d.start(); err != nil {
		d.logger().Error("Destination failed to start", err, nil)
		d.messageBroker().notifyError(d.event(d.IsManaged()), err)
		return err
	}
	d.started = true
	d.logger().Info("Destination started", loggingpkg.LogFields{"channels": d.channels})
	d.messageBroker().notifyStart(d.event(d.IsManaged()))
	return nil
}

// start applies the service defaults and undoes them again when a later
// step fails, so a failed start leaves the wiring as the caller set it.
func (d *Destination) start() (err error) {
	if err := d.requireID(); err != nil {
		return err
	}
	var defaultedChannels, defaultedAdapter bool
	defer func() {
		if err == nil {
			return
		}
		if defaultedChannels {
			d.channels = nil
		}
		if defaultedAdapter {
			d.ReplaceAdapter(nil)
		}
	}()
	if s := d.service; s != nil {
		if len(d.channels) == 0 && len(s.defaultChannels) > 0 {
			d.channels = append(d.channels, s.defaultChannels...)
			defaultedChannels = true
		}
		if d.adapter == nil && s.defaultAdapterID != "" {
			if _, err := d.CreateAdapter(s.defaultAdapterID); err != nil {
				return err
			}
			defaultedAdapter = true
		}
	}
	if err := d.ValidateChannels(); err != nil {
		return err
	}
	if d.securityConstraint == nil && d.securityConstraintRef != "" {
		d.securityConstraint = d.resolveSecurityConstraint(d.securityConstraintRef)
	}
	if d.adapter != nil && !d.adapter.IsStarted() {
		if err := d.adapter.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the adapter and the destination. The adapter is always asked to
// stop, even when the destination was not running.
func (d *Destination) Stop() error {
	var err error
	if d.adapter != nil {
		err = d.adapter.Stop()
		if err != nil {
			d.messageBroker().notifyError(d.event(d.IsManaged()), err)
		}
	}
	wasStarted := d.started
	d.started = false
	if wasStarted {
		d.logger().Info("Destination stopped", nil)
		d.messageBroker().notifyStop(d.event(d.IsManaged()))
	}
	return err
}
