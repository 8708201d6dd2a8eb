package broker

import (
	"sort"
	"sync"

	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
)

// Authentication methods of a SecurityConstraint.
const (
	AuthMethodBasic  = "Basic"
	AuthMethodCustom = "Custom"
)

// SecurityConstraint names the roles allowed to use a destination. The broker
// only resolves and stores constraints; enforcing them happens elsewhere.
type SecurityConstraint struct {
	ID     string
	Method string
	Roles  []string
}

// NewSecurityConstraint returns a constraint using custom authentication.
func NewSecurityConstraint(id string) *SecurityConstraint {
	return &SecurityConstraint{ID: id, Method: AuthMethodCustom}
}

// AddRole appends role unless it is already listed.
func (c *SecurityConstraint) AddRole(role string) {
	if c.HasRole(role) {
		return
	}
	c.Roles = append(c.Roles, role)
}

// HasRole reports whether role is listed on the constraint.
func (c *SecurityConstraint) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SecurityRegistry holds the security constraints declared in configuration,
// keyed by id. It is safe for concurrent use.
type SecurityRegistry struct {
	mu          sync.RWMutex
	constraints map[string]*SecurityConstraint
}

// NewSecurityRegistry returns an empty registry.
func NewSecurityRegistry() *SecurityRegistry {
	return &SecurityRegistry{constraints: make(map[string]*SecurityConstraint)}
}

// Register adds or replaces sc under its id.
func (r *SecurityRegistry) Register(sc *SecurityConstraint) error {
	if sc == nil {
		return errspkg.NewConfigurationError(errspkg.CodeNullComponentProperty,
			"cannot register a null security constraint")
	}
	if sc.ID == "" {
		return errspkg.NewConfigurationError(errspkg.CodeNullOrEmptyProperty,
			"security constraint id cannot be null or empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constraints[sc.ID] = sc
	return nil
}

// Lookup resolves ref.
func (r *SecurityRegistry) Lookup(ref string) (*SecurityConstraint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.constraints[ref]
	return sc, ok
}

// IDs returns the registered ids in sorted order.
func (r *SecurityRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.constraints))
	for id := range r.constraints {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
