// Package bootstrap turns a declarative broker configuration into a wired
// component tree.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/drblury/brokercore/internal/runtime/broker"
	"github.com/drblury/brokercore/internal/runtime/config"
	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
)

// New creates a broker for cfg, establishes it in the returned context and
// applies cfg to it. The broker is not started.
// opts are applied after the options derived from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...broker.Option) (*broker.MessageBroker, context.Context, error) {
	if cfg == nil {
		return nil, ctx, errspkg.ErrConfigRequired
	}
	base := []broker.Option{broker.WithManaged(config.Enabled(cfg.Broker.Managed))}
	if cfg.Broker.ID != "" {
		base = append(base, broker.WithID(cfg.Broker.ID))
	}
	b := broker.New(append(base, opts...)...)
	ctx = b.InitThreadLocals(ctx)
	if err := Apply(ctx, cfg); err != nil {
		return nil, ctx, err
	}
	return b, ctx, nil
}

// Apply wires cfg into the broker established in ctx by InitThreadLocals.
// The configuration is validated first; nothing is applied if it is invalid.
// The tree is built under the broker's configuration lock.
func Apply(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errspkg.ErrConfigRequired
	}
	b, ok := broker.FromContext(ctx)
	if !ok {
		return errspkg.ErrBrokerRequired
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid broker configuration: %w", err)
	}
	err := b.Reconfigure(func(b *broker.MessageBroker) error {
		return apply(b, cfg)
	})
	if err != nil {
		return err
	}
	b.Logger().Info("Broker configuration applied", loggingpkg.LogFields{
		"broker_id": b.ID(),
		"channels":  len(cfg.Channels),
		"services":  len(cfg.Services),
	})
	return nil
}

func apply(b *broker.MessageBroker, cfg *config.Config) error {
	for _, ch := range cfg.Channels {
		if err := b.AddChannelSettings(ch.ID, channelSettings(ch)); err != nil {
			return fmt.Errorf("channel %q: %w", ch.ID, err)
		}
	}
	for _, sc := range cfg.Security {
		if err := b.SecurityConstraints().Register(securityConstraint(sc)); err != nil {
			return fmt.Errorf("security %q: %w", sc.ID, err)
		}
	}
	for _, sc := range cfg.Services {
		if err := applyService(b, sc); err != nil {
			return fmt.Errorf("service %q: %w", sc.ID, err)
		}
	}
	return nil
}

func channelSettings(ch config.ChannelConfig) *broker.ChannelSettings {
	props := make(map[string]string, len(ch.Properties))
	for k, v := range ch.Properties {
		props[k] = v
	}
	return &broker.ChannelSettings{
		ID:         ch.ID,
		Type:       ch.Type,
		URL:        ch.URL,
		Properties: props,
	}
}

func securityConstraint(sc config.SecurityConfig) *broker.SecurityConstraint {
	out := broker.NewSecurityConstraint(sc.ID)
	if sc.Method != "" {
		out.Method = sc.Method
	}
	for _, role := range sc.Roles {
		out.AddRole(role)
	}
	return out
}

func applyService(b *broker.MessageBroker, sc config.ServiceConfig) error {
	kind := sc.Kind
	if kind == "" {
		kind = broker.MessageServiceKind
	}
	svc := broker.NewService(kind)
	if err := svc.SetID(sc.ID); err != nil {
		return err
	}
	svc.SetManaged(config.Enabled(sc.Managed))

	for _, a := range sc.Adapters {
		if err := svc.RegisterAdapter(a.ID, a.Class); err != nil {
			return err
		}
		if a.Default {
			if err := svc.SetDefaultAdapter(a.ID); err != nil {
				return err
			}
		}
	}
	for _, ch := range sc.DefaultChannels {
		if err := svc.AddDefaultChannel(ch); err != nil {
			return err
		}
	}
	if err := svc.SetMessageBroker(b); err != nil {
		return err
	}

	for _, dc := range sc.Destinations {
		if err := applyDestination(svc, dc); err != nil {
			return fmt.Errorf("destination %q: %w", dc.ID, err)
		}
	}
	return nil
}

func applyDestination(svc *broker.Service, dc config.DestinationConfig) error {
	d, err := svc.CreateDestination(dc.ID)
	if err != nil {
		return err
	}
	d.SetManaged(config.Enabled(dc.Managed))

	for _, ch := range dc.Channels {
		if err := d.AddChannel(ch); err != nil {
			return err
		}
	}
	if dc.Adapter != "" {
		if _, err := d.CreateAdapter(dc.Adapter); err != nil {
			return err
		}
	}
	if dc.Security != "" {
		d.SetSecurityConstraintRef(dc.Security)
	}
	if dc.Network != nil {
		ns, err := networkSettings(dc.Network)
		if err != nil {
			return err
		}
		d.SetNetworkSettings(ns)
	}
	for k, v := range dc.Properties {
		d.AddExtraProperty(k, v)
	}
	return nil
}

func networkSettings(nc *config.NetworkConfig) (*broker.NetworkSettings, error) {
	ns := broker.NewNetworkSettings()
	if err := ns.SetSubscriptionTimeoutMinutes(nc.SubscriptionTimeoutMinutes); err != nil {
		return nil, err
	}
	if err := ns.SetSessionTimeoutMinutes(nc.SessionTimeoutMinutes); err != nil {
		return nil, err
	}
	ns.ClusterID = nc.ClusterID
	ns.SharedBackend = nc.SharedBackend
	ns.Reliable = nc.Reliable
	ns.Throttle = nc.ThrottleSettings()
	if ns.Throttle.InboundPolicy == "" {
		ns.Throttle.InboundPolicy = broker.ThrottleNone
	}
	if ns.Throttle.OutboundPolicy == "" {
		ns.Throttle.OutboundPolicy = broker.ThrottleNone
	}
	return ns, ns.Validate()
}
