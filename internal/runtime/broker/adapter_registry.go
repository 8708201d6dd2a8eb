package broker

import (
	"fmt"
	"sort"
	"sync"

	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
)

// AdapterFactory constructs a fresh, unbound adapter. Construction must be
// free of side effects: the result is discarded if it cannot be bound.
type AdapterFactory func() (ServiceAdapter, error)

// AdapterRegistry maps adapter class names to their factories.
// Adapter packages register themselves using Register.
type AdapterRegistry struct {
	mu        sync.RWMutex
	factories map[string]AdapterFactory
}

// DefaultAdapterRegistry is the process-wide adapter class registry. Brokers
// use it unless WithAdapterRegistry says otherwise.
var DefaultAdapterRegistry = NewAdapterRegistry()

func init() {
	DefaultAdapterRegistry.Register(EchoAdapterClass, func() (ServiceAdapter, error) {
		return NewEchoAdapter(), nil
	})
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{factories: make(map[string]AdapterFactory)}
}

// Register adds or replaces the factory for className.
func (r *AdapterRegistry) Register(className string, factory AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[className] = factory
}

// Has returns true if a factory is registered for className.
func (r *AdapterRegistry) Has(className string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[className]
	return ok
}

// Names returns the registered class names in sorted order.
func (r *AdapterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New instantiates className.
func (r *AdapterRegistry) New(className string) (ServiceAdapter, error) {
	if className == "" {
		return nil, errspkg.ErrAdapterClassEmpty
	}

	r.mu.RLock()
	factory, ok := r.factories[className]
	r.mu.RUnlock()

	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %q (registered: %v)", errspkg.ErrUnknownAdapter, className, r.Names())
	}

	a, err := factory()
	if err != nil {
		return nil, fmt.Errorf("constructing adapter class %q: %w", className, err)
	}
	if a == nil {
		return nil, fmt.Errorf("adapter class %q produced no adapter", className)
	}
	return a, nil
}

// RegisterAdapterClass adds a factory to the default registry.
func RegisterAdapterClass(className string, factory AdapterFactory) {
	DefaultAdapterRegistry.Register(className, factory)
}
