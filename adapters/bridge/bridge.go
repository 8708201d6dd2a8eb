// Package bridge provides BridgeAdapter, an adapter class that opens the
// transport endpoints of its destination's channels while it runs.
//
// Importing the package registers the class with
// broker.DefaultAdapterRegistry. Import transport/transports as well (or the
// individual transport packages) so the channel types can be built.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/drblury/brokercore/internal/runtime/broker"
	errspkg "github.com/drblury/brokercore/internal/runtime/errors"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
	"github.com/drblury/brokercore/transport"
)

// ClassName is the adapter class name used in adapter definitions.
const ClassName = "BridgeAdapter"

func init() {
	broker.DefaultAdapterRegistry.Register(ClassName, func() (broker.ServiceAdapter, error) {
		return New(), nil
	})
}

// Adapter holds one open transport per resolved channel of its destination.
// Channels whose settings are not known yet are skipped.
type Adapter struct {
	broker.AdapterBase

	// Builder opens a channel endpoint. Defaults to transport.Build.
	Builder transport.Builder
	// Capabilities reports what a channel type guarantees. Defaults to
	// transport.GetCapabilities.
	Capabilities func(channelType string) transport.Capabilities

	mu        sync.Mutex
	endpoints map[string]transport.Transport
}

// New returns an unbound bridge adapter using the default transport registry.
func New() *Adapter {
	return &Adapter{
		AdapterBase:  broker.NewAdapterBase(ClassName),
		Builder:      transport.Build,
		Capabilities: transport.GetCapabilities,
		endpoints:    make(map[string]transport.Transport),
	}
}

// Start opens an endpoint for every channel of the destination that has
// settings. If any endpoint fails, the ones already opened are closed and the
// adapter stays stopped.
func (a *Adapter) Start() error {
	if a.IsStarted() {
		return nil
	}
	d := a.Destination()
	if d == nil {
		return errspkg.NewConfigurationError(errspkg.CodeNullComponentProperty,
			"bridge adapter %q is not bound to a destination", a.ID())
	}
	b := a.MessageBroker()
	if b == nil {
		return fmt.Errorf("bridge adapter %q: %w", a.ID(), errspkg.ErrBrokerRequired)
	}

	log := a.Logger()
	wmLogger := loggingpkg.NewWatermillAdapter(log)
	reliable := d.NetworkSettings() != nil && d.NetworkSettings().Reliable

	opened := make(map[string]transport.Transport)
	fail := func(err error) error {
		closeErr := closeAll(opened)
		log.Error("Bridge adapter failed to start", err, loggingpkg.LogFields{"destination": d.ID()})
		return errors.Join(err, closeErr)
	}

	for _, channelID := range d.Channels() {
		cs, ok := b.ChannelSettings(channelID)
		if !ok || cs == nil {
			log.Debug("Skipping unresolved channel", loggingpkg.LogFields{"channel": channelID})
			continue
		}
		if reliable {
			if caps := a.capabilities(cs.Type); !caps.SupportsReliableDelivery() {
				return fail(errspkg.NewConfigurationError(errspkg.CodeInvalidSetting,
					"destination %q requires reliable delivery but channel %q uses %s",
					d.ID(), channelID, caps))
			}
		}
		tr, err := a.builder()(context.Background(), cs, wmLogger)
		if err != nil {
			return fail(fmt.Errorf("bridge adapter %q: channel %q: %w", a.ID(), channelID, err))
		}
		opened[channelID] = tr
		log.Debug("Channel endpoint opened", loggingpkg.LogFields{"channel": channelID, "type": cs.Type})
	}

	a.mu.Lock()
	a.endpoints = opened
	a.mu.Unlock()
	return a.AdapterBase.Start()
}

// Stop closes every open endpoint. The adapter ends stopped even when some
// endpoints fail to close; those errors are returned joined.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	opened := a.endpoints
	a.endpoints = make(map[string]transport.Transport)
	a.mu.Unlock()

	err := closeAll(opened)
	if err != nil {
		a.Logger().Error("Bridge adapter endpoints failed to close", err, nil)
	}
	return errors.Join(err, a.AdapterBase.Stop())
}

// Endpoints returns the ids of the channels with an open endpoint, sorted.
func (a *Adapter) Endpoints() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.endpoints))
	for id := range a.endpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Endpoint returns the open transport for a channel.
func (a *Adapter) Endpoint(channelID string) (transport.Transport, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	tr, ok := a.endpoints[channelID]
	return tr, ok
}

func (a *Adapter) builder() transport.Builder {
	if a.Builder == nil {
		return transport.Build
	}
	return a.Builder
}

func (a *Adapter) capabilities(channelType string) transport.Capabilities {
	if a.Capabilities == nil {
		return transport.GetCapabilities(channelType)
	}
	return a.Capabilities(channelType)
}

func closeAll(endpoints map[string]transport.Transport) error {
	ids := make([]string, 0, len(endpoints))
	for id := range endpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := endpoints[id].Close(); err != nil {
			errs = append(errs, fmt.Errorf("channel %q: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
