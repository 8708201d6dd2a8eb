// Package observability exposes the broker tree to logs, Prometheus and
// OpenTelemetry through lifecycle hooks and a collector.
package observability

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/brokercore/internal/runtime/broker"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
)

// TracerName is the instrumentation name used when no tracer is supplied.
const TracerName = "github.com/drblury/brokercore"

func eventFields(ev broker.LifecycleEvent) loggingpkg.LogFields {
	return loggingpkg.LogFields{
		"component_kind":          string(ev.Kind),
		loggingpkg.FieldComponent: ev.ID,
		loggingpkg.FieldCategory:  ev.Category,
		"managed":                 ev.Managed,
	}
}

// LoggingHooks returns pre-built hooks that log component transitions.
func LoggingHooks(logger loggingpkg.ServiceLogger) broker.LifecycleHooks {
	if logger == nil {
		logger = loggingpkg.NopLogger()
	}
	return broker.LifecycleHooks{
		OnStart: func(ev broker.LifecycleEvent) {
			logger.Info("Component started", eventFields(ev))
		},
		OnStop: func(ev broker.LifecycleEvent) {
			logger.Info("Component stopped", eventFields(ev))
		},
		OnError: func(ev broker.LifecycleEvent, err error) {
			logger.Error("Component transition failed", err, eventFields(ev))
		},
	}
}

// TracingHooks records every transition as a short span. A nil tracer uses
// the global provider.
func TracingHooks(tracer trace.Tracer) broker.LifecycleHooks {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	record := func(name string, ev broker.LifecycleEvent, err error) {
		_, span := tracer.Start(context.Background(), name,
			trace.WithTimestamp(ev.At),
			trace.WithAttributes(
				attribute.String("component.kind", string(ev.Kind)),
				attribute.String("component.id", ev.ID),
				attribute.String("component.category", ev.Category),
				attribute.Bool("component.managed", ev.Managed),
			),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return broker.LifecycleHooks{
		OnStart: func(ev broker.LifecycleEvent) { record("component.start", ev, nil) },
		OnStop:  func(ev broker.LifecycleEvent) { record("component.stop", ev, nil) },
		OnError: func(ev broker.LifecycleEvent, err error) { record("component.error", ev, err) },
	}
}

// Metrics counts component transitions.
type Metrics struct {
	mu sync.Mutex

	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec

	registerer prometheus.Registerer
	registered bool
}

// NewMetrics creates the transition counters. A nil registerer means
// prometheus.DefaultRegisterer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		registerer: registerer,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokercore",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Component lifecycle transitions by kind and direction",
		}, []string{"kind", "transition"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokercore",
			Subsystem: "lifecycle",
			Name:      "failures_total",
			Help:      "Failed component start or stop attempts by kind",
		}, []string{"kind"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}
	for _, c := range []prometheus.Collector{m.transitions, m.failures} {
		if err := m.registerer.Register(c); err != nil {
			// Check if it's already registered (not an error)
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	m.registered = true
	return nil
}

// Hooks returns hooks feeding the counters.
func (m *Metrics) Hooks() broker.LifecycleHooks {
	return broker.LifecycleHooks{
		OnStart: func(ev broker.LifecycleEvent) {
			m.transitions.WithLabelValues(string(ev.Kind), "start").Inc()
		},
		OnStop: func(ev broker.LifecycleEvent) {
			m.transitions.WithLabelValues(string(ev.Kind), "stop").Inc()
		},
		OnError: func(ev broker.LifecycleEvent, err error) {
			m.failures.WithLabelValues(string(ev.Kind)).Inc()
		},
	}
}
