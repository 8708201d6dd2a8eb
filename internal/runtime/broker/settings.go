package broker

import (
	"errors"
	"fmt"
	"strings"

	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
)

// ChannelSettings describes a channel known to the broker: the transport type
// that carries it, its endpoint URL and transport-specific properties.
type ChannelSettings struct {
	ID         string
	Type       string
	URL        string
	Properties map[string]string
}

// Getter methods to implement transport.Endpoint.
func (c *ChannelSettings) GetID() string   { return c.ID }
func (c *ChannelSettings) GetType() string { return c.Type }
func (c *ChannelSettings) GetURL() string  { return c.URL }

// GetProperty returns the property value, or "" when unset.
func (c *ChannelSettings) GetProperty(key string) string {
	return c.Properties[key]
}

// ThrottlePolicy selects what happens to messages above a throttle limit.
type ThrottlePolicy string

const (
	ThrottleNone     ThrottlePolicy = "NONE"
	ThrottleError    ThrottlePolicy = "ERROR"
	ThrottleIgnore   ThrottlePolicy = "IGNORE"
	ThrottleBuffer   ThrottlePolicy = "BUFFER"
	ThrottleConflate ThrottlePolicy = "CONFLATE"
)

// ParseThrottlePolicy accepts policy names case-insensitively. The empty
// string means ThrottleNone.
func ParseThrottlePolicy(name string) (ThrottlePolicy, error) {
	switch p := ThrottlePolicy(strings.ToUpper(strings.TrimSpace(name))); p {
	case "":
		return ThrottleNone, nil
	case ThrottleNone, ThrottleError, ThrottleIgnore, ThrottleBuffer, ThrottleConflate:
		return p, nil
	}
	return "", errspkg.NewConfigurationError(errspkg.CodeInvalidSetting, "unknown throttle policy %q", name)
}

// ThrottleSettings limits message frequency per destination. Zero
// frequencies mean unlimited.
type ThrottleSettings struct {
	InboundPolicy        ThrottlePolicy
	InboundMaxFrequency  int
	OutboundPolicy       ThrottlePolicy
	OutboundMaxFrequency int
}

// Validate checks ranges and policy names.
func (t ThrottleSettings) Validate() error {
	var errs []error
	if t.InboundMaxFrequency < 0 {
		errs = append(errs, invalidSetting("throttle: inbound max frequency cannot be negative"))
	}
	if t.OutboundMaxFrequency < 0 {
		errs = append(errs, invalidSetting("throttle: outbound max frequency cannot be negative"))
	}
	if _, err := ParseThrottlePolicy(string(t.InboundPolicy)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseThrottlePolicy(string(t.OutboundPolicy)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NetworkSettings holds the per-destination network tuning. Setters reject
// out-of-range values so a settings object is always valid.
type NetworkSettings struct {
	subscriptionTimeoutMinutes int
	sessionTimeoutMinutes      int

	ClusterID     string
	SharedBackend bool
	Reliable      bool
	Throttle      ThrottleSettings
}

// NewNetworkSettings returns settings with every timeout and limit at zero.
func NewNetworkSettings() *NetworkSettings {
	return &NetworkSettings{}
}

// SetSubscriptionTimeoutMinutes sets how long an idle subscription lives.
// Zero disables the timeout.
func (n *NetworkSettings) SetSubscriptionTimeoutMinutes(minutes int) error {
	if minutes < 0 {
		return invalidSetting(fmt.Sprintf("subscription timeout cannot be negative, got %d", minutes))
	}
	n.subscriptionTimeoutMinutes = minutes
	return nil
}

func (n *NetworkSettings) SubscriptionTimeoutMinutes() int {
	return n.subscriptionTimeoutMinutes
}

// SetSessionTimeoutMinutes sets the session timeout. Zero disables it.
func (n *NetworkSettings) SetSessionTimeoutMinutes(minutes int) error {
	if minutes < 0 {
		return invalidSetting(fmt.Sprintf("session timeout cannot be negative, got %d", minutes))
	}
	n.sessionTimeoutMinutes = minutes
	return nil
}

func (n *NetworkSettings) SessionTimeoutMinutes() int {
	return n.sessionTimeoutMinutes
}

// Validate checks the fields that can be assigned directly.
func (n *NetworkSettings) Validate() error {
	return n.Throttle.Validate()
}

func invalidSetting(msg string) error {
	return errspkg.NewConfigurationError(errspkg.CodeInvalidSetting, "%s", msg)
}
