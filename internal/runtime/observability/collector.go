package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/brokercore/internal/runtime/broker"
)

var (
	brokerUpDesc = prometheus.NewDesc(
		"brokercore_broker_started",
		"Whether a managed broker is started (1) or stopped (0)",
		[]string{"id"}, nil,
	)
	componentUpDesc = prometheus.NewDesc(
		"brokercore_component_started",
		"Whether a managed service, destination or adapter is started (1) or stopped (0)",
		[]string{"kind", "id", "parent"}, nil,
	)
	destinationChannelsDesc = prometheus.NewDesc(
		"brokercore_destination_channels",
		"Number of channels bound to a managed destination",
		[]string{"service", "destination"}, nil,
	)
)

// ManagedCollector exposes the state of a broker's managed components. Only
// components whose effective managed flag is set are reported; an unmanaged
// component hides its whole subtree.
type ManagedCollector struct {
	broker *broker.MessageBroker
}

func NewManagedCollector(b *broker.MessageBroker) *ManagedCollector {
	return &ManagedCollector{broker: b}
}

func (c *ManagedCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- brokerUpDesc
	ch <- componentUpDesc
	ch <- destinationChannelsDesc
}

// Collect reads a snapshot taken under the broker's configuration lock.
func (c *ManagedCollector) Collect(ch chan<- prometheus.Metric) {
	var snap broker.BrokerSnapshot
	_ = c.broker.Reconfigure(func(b *broker.MessageBroker) error {
		snap = b.Snapshot()
		return nil
	})
	if !snap.Managed {
		return
	}
	ch <- prometheus.MustNewConstMetric(brokerUpDesc, prometheus.GaugeValue, boolValue(snap.Started), snap.ID)

	for _, svc := range snap.Services {
		if !svc.Managed {
			continue
		}
		ch <- prometheus.MustNewConstMetric(componentUpDesc, prometheus.GaugeValue,
			boolValue(svc.Started), string(broker.KindService), svc.ID, snap.ID)

		for _, d := range svc.Destinations {
			if !d.Managed {
				continue
			}
			ch <- prometheus.MustNewConstMetric(componentUpDesc, prometheus.GaugeValue,
				boolValue(d.Started), string(broker.KindDestination), d.ID, svc.ID)
			ch <- prometheus.MustNewConstMetric(destinationChannelsDesc, prometheus.GaugeValue,
				float64(len(d.Channels)), svc.ID, d.ID)

			if a := d.Adapter; a != nil && a.Managed && a.ID != "" {
				ch <- prometheus.MustNewConstMetric(componentUpDesc, prometheus.GaugeValue,
					boolValue(a.Started), string(broker.KindAdapter), a.ID, d.ID)
			}
		}
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
