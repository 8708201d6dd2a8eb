package broker

import (
	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
)

// ManagedComponent is the identity and lifecycle contract shared by the
// broker, its services, their destinations and the destinations' adapters.
type ManagedComponent interface {
	ID() string
	SetID(id string) error
	Start() error
	Stop() error
	IsStarted() bool
	SetManaged(managed bool)
	IsManaged() bool
	LogCategory() string
	// ParentComponent returns the owning component, or nil for the root and
	// for components that are not bound yet.
	ParentComponent() ManagedComponent
}

// ComponentKind names the level of a component in the broker tree.
type ComponentKind string

const (
	KindBroker      ComponentKind = "broker"
	KindService     ComponentKind = "service"
	KindDestination ComponentKind = "destination"
	KindAdapter     ComponentKind = "adapter"
)

// component holds the state every managed component embeds. The zero value is
// a managed, stopped component without an id.
type component struct {
	kind      ComponentKind
	id        string
	started   bool
	unmanaged bool
	category  string
}

func newComponent(kind ComponentKind, category string) component {
	return component{kind: kind, category: category}
}

func (c *component) ID() string {
	return c.id
}

func (c *component) IsStarted() bool {
	return c.started
}

// SetManaged stores the local flag. The effective value also depends on the
// ancestors, see IsManaged on the concrete types.
func (c *component) SetManaged(managed bool) {
	c.unmanaged = !managed
}

// LogCategory is fixed at construction and stable for the component's life.
func (c *component) LogCategory() string {
	if c.category == "" {
		return categoryFor(c.kind, "")
	}
	return c.category
}

func (c *component) setID(id string, locked bool) error {
	if id == "" {
		return errspkg.NewConfigurationError(errspkg.CodeNullOrEmptyProperty,
			"%s id cannot be null or empty", c.kindName())
	}
	if id == c.id {
		return nil
	}
	if c.started || (locked && c.id != "") {
		return errspkg.NewConfigurationError(errspkg.CodePropertyChangeAfterStartup,
			"%s id %q cannot change to %q once started or registered", c.kindName(), c.id, id)
	}
	c.id = id
	return nil
}

func (c *component) requireID() error {
	if c.id == "" {
		return errspkg.NewConfigurationError(errspkg.CodeNullOrEmptyProperty,
			"%s id must be set before use", c.kindName())
	}
	return nil
}

func (c *component) kindName() string {
	if c.kind == "" {
		return "component"
	}
	return string(c.kind)
}

func (c *component) event(managed bool) LifecycleEvent {
	return newLifecycleEvent(c.kind, c.id, c.LogCategory(), managed)
}

// managedWithin ANDs the local flag with the parent chain. It is computed on
// every read so a later change to an ancestor is always visible.
func (c *component) managedWithin(parent ManagedComponent) bool {
	if c.unmanaged {
		return false
	}
	if parent == nil {
		return true
	}
	return parent.IsManaged()
}

func categoryFor(kind ComponentKind, qualifier string) string {
	if qualifier == "" {
		qualifier = "General"
	}
	switch kind {
	case KindBroker:
		return "Broker"
	case KindService:
		return "Service." + qualifier
	case KindDestination:
		return "Destination." + qualifier
	case KindAdapter:
		return "Adapter." + qualifier
	}
	return "Component." + qualifier
}
