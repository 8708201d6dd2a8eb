package broker

import (
	"github.com/drblury/brokercore/internal/runtime/jsoncodec"
)

// BrokerSnapshot is a point-in-time view of the component tree.
type BrokerSnapshot struct {
	ID       string            `json:"id"`
	Started  bool              `json:"started"`
	Managed  bool              `json:"managed"`
	Channels []ChannelSnapshot `json:"channels"`
	Services []ServiceSnapshot `json:"services"`
}

type ChannelSnapshot struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	Resolved bool   `json:"resolved"`
}

type ServiceSnapshot struct {
	ID             string                `json:"id"`
	Kind           string                `json:"kind"`
	Started        bool                  `json:"started"`
	Managed        bool                  `json:"managed"`
	Adapters       map[string]string     `json:"adapters"`
	DefaultAdapter string                `json:"default_adapter,omitempty"`
	Destinations   []DestinationSnapshot `json:"destinations"`
}

type DestinationSnapshot struct {
	ID          string            `json:"id"`
	Started     bool              `json:"started"`
	Managed     bool              `json:"managed"`
	Channels    []string          `json:"channels"`
	SecurityRef string            `json:"security_ref,omitempty"`
	Secured     bool              `json:"secured"`
	Properties  map[string]string `json:"properties,omitempty"`
	Adapter     *AdapterSnapshot  `json:"adapter,omitempty"`
}

type AdapterSnapshot struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Started  bool   `json:"started"`
	Managed  bool   `json:"managed"`
}

// Snapshot captures the current state of the broker tree.
func (b *MessageBroker) Snapshot() BrokerSnapshot {
	snap := BrokerSnapshot{
		ID:       b.id,
		Started:  b.started,
		Managed:  b.IsManaged(),
		Channels: make([]ChannelSnapshot, 0, len(b.channelSettings)),
		Services: make([]ServiceSnapshot, 0, len(b.services)),
	}
	for _, id := range b.ChannelIDs() {
		cs := b.channelSettings[id]
		ch := ChannelSnapshot{ID: id, Resolved: cs != nil}
		if cs != nil {
			ch.Type = cs.Type
		}
		snap.Channels = append(snap.Channels, ch)
	}
	for _, s := range b.Services() {
		snap.Services = append(snap.Services, s.snapshot())
	}
	return snap
}

// MarshalSnapshot encodes the current snapshot as indented JSON.
func (b *MessageBroker) MarshalSnapshot() ([]byte, error) {
	return jsoncodec.MarshalIndent(b.Snapshot(), "", "  ")
}

func (s *Service) snapshot() ServiceSnapshot {
	out := ServiceSnapshot{
		ID:             s.id,
		Kind:           s.kind,
		Started:        s.started,
		Managed:        s.IsManaged(),
		Adapters:       s.RegisteredAdapters(),
		DefaultAdapter: s.defaultAdapterID,
		Destinations:   make([]DestinationSnapshot, 0, len(s.destinations)),
	}
	for _, d := range s.Destinations() {
		out.Destinations = append(out.Destinations, d.snapshot())
	}
	return out
}

func (d *Destination) snapshot() DestinationSnapshot {
	out := DestinationSnapshot{
		ID:          d.id,
		Started:     d.started,
		Managed:     d.IsManaged(),
		Channels:    d.Channels(),
		SecurityRef: d.securityConstraintRef,
		Secured:     d.securityConstraint != nil,
	}
	if len(d.extraProperties) > 0 {
		out.Properties = d.ExtraProperties()
	}
	if d.adapter != nil {
		out.Adapter = &AdapterSnapshot{
			ID:       d.adapter.ID(),
			Category: d.adapter.LogCategory(),
			Started:  d.adapter.IsStarted(),
			Managed:  d.adapter.IsManaged(),
		}
	}
	return out
}
