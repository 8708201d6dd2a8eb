package broker

import (
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
)

// ServiceAdapter is a pluggable backend bound to one destination. The broker
// only manages an adapter's identity and lifecycle; what it does while
// running is up to the implementation.
//
// Implementations embed AdapterBase and must be pointer types.
type ServiceAdapter interface {
	ManagedComponent
	Destination() *Destination
	SetDestination(d *Destination)
}

// AdapterBase implements ServiceAdapter. The zero value is a managed,
// stopped adapter without an id.
//
// Types embedding it override Start and Stop and call the base methods once
// their own work succeeded.
type AdapterBase struct {
	component
	destination *Destination
}

// NewAdapterBase returns a base whose log category is derived from the
// adapter class name.
func NewAdapterBase(className string) AdapterBase {
	return AdapterBase{component: newComponent(KindAdapter, categoryFor(KindAdapter, className))}
}

// SetID sets the adapter id. It cannot change while the adapter runs.
func (a *AdapterBase) SetID(id string) error {
	if a.kind == "" {
		a.kind = KindAdapter
	}
	return a.setID(id, false)
}

func (a *AdapterBase) IsManaged() bool {
	return a.managedWithin(a.ParentComponent())
}

func (a *AdapterBase) ParentComponent() ManagedComponent {
	if a.destination == nil {
		return nil
	}
	return a.destination
}

// LogCategory defaults to "Adapter.General" for a zero AdapterBase.
func (a *AdapterBase) LogCategory() string {
	if a.category == "" {
		return categoryFor(KindAdapter, "")
	}
	return a.category
}

// Destination returns the bound destination, or nil.
func (a *AdapterBase) Destination() *Destination {
	return a.destination
}

// SetDestination records the back-reference. Destination.SetAdapter calls it;
// adapters should not be bound by calling it directly.
func (a *AdapterBase) SetDestination(d *Destination) {
	a.destination = d
}

// MessageBroker walks destination, service and broker back-references and
// returns nil if any link is missing.
func (a *AdapterBase) MessageBroker() *MessageBroker {
	if a.destination == nil {
		return nil
	}
	return a.destination.messageBroker()
}

// Logger returns a logger scoped to the adapter.
func (a *AdapterBase) Logger() loggingpkg.ServiceLogger {
	var base loggingpkg.ServiceLogger
	if b := a.MessageBroker(); b != nil {
		base = b.logger
	}
	return loggingpkg.ForComponent(base, a.LogCategory(), a.id)
}

func (a *AdapterBase) Start() error {
	if a.started {
		return nil
	}
	a.started = true
	a.MessageBroker().notifyStart(a.adapterEvent())
	return nil
}

func (a *AdapterBase) Stop() error {
	if !a.started {
		return nil
	}
	a.started = false
	a.MessageBroker().notifyStop(a.adapterEvent())
	return nil
}

func (a *AdapterBase) adapterEvent() LifecycleEvent {
	ev := a.event(a.IsManaged())
	ev.Kind = KindAdapter
	ev.Category = a.LogCategory()
	return ev
}

// EchoAdapterClass is the class name of EchoAdapter in adapter definitions.
const EchoAdapterClass = "EchoAdapter"

// EchoAdapter has no backend. It is the adapter used when a destination only
// needs a bound, running adapter.
type EchoAdapter struct {
	AdapterBase
}

// NewEchoAdapter returns an unbound EchoAdapter without an id.
func NewEchoAdapter() *EchoAdapter {
	return &EchoAdapter{AdapterBase: NewAdapterBase(EchoAdapterClass)}
}
