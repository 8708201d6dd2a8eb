package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/drblury/brokercore/internal/runtime/bootstrap"
	"github.com/drblury/brokercore/internal/runtime/broker"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
	"github.com/drblury/brokercore/internal/runtime/observability"
	"github.com/drblury/brokercore/transport"
)

func (c *cli) validateCmd() *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration without starting anything",
		Long: `Parse the configuration strictly (unknown keys are rejected), apply
environment overrides and report every reference or range error at once.

Examples:
  brokerctl validate -c broker.yaml
  brokerctl validate -c broker.yaml --show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid broker configuration:\n%w", err)
			}
			fmt.Fprintf(c.out, "configuration valid: %d channels, %d services\n", len(cfg.Channels), len(cfg.Services))
			if show {
				fmt.Fprint(c.out, cfg.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "print the effective configuration with credentials redacted")
	return cmd
}

func (c *cli) snapshotCmd() *cobra.Command {
	var noStart bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Wire the broker, start it and print its component tree as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := c.build(cmd.Context())
			if err != nil {
				return err
			}
			var startErr error
			if !noStart {
				startErr = startBroker(b)
			}
			var data []byte
			err = b.Reconfigure(func(b *broker.MessageBroker) error {
				var err error
				data, err = b.MarshalSnapshot()
				return err
			})
			if err != nil {
				return errors.Join(err, stopBroker(b))
			}
			fmt.Fprintln(c.out, string(data))
			return errors.Join(startErr, stopBroker(b))
		},
	}
	cmd.Flags().BoolVar(&noStart, "no-start", false, "print the wired tree without starting it")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	var (
		metricsAddr string
		corsOrigins []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the broker and keep it running until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := c.logger()
			registry := prometheus.NewRegistry()
			metrics := observability.NewMetrics(registry)
			if err := metrics.Register(); err != nil {
				return err
			}
			hooks := observability.LoggingHooks(log).
				Merge(metrics.Hooks()).
				Merge(observability.TracingHooks(otel.Tracer(observability.TracerName)))

			b, _, err := c.build(cmd.Context(), broker.WithLogger(log), broker.WithHooks(hooks))
			if err != nil {
				return err
			}
			if err := registry.Register(observability.NewManagedCollector(b)); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
				mux.Handle(observability.StatusPath, observability.StatusHandler(b, corsOrigins, log))
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           mux,
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("Metrics server failed", err, loggingpkg.LogFields{"addr": metricsAddr})
					}
				}()
				defer func() { _ = srv.Shutdown(context.Background()) }()
			}

			if err := startBroker(b); err != nil {
				log.Error("Broker started with errors", err, nil)
			}
			<-ctx.Done()
			log.Info("Shutting down", loggingpkg.LogFields{"broker_id": b.ID()})
			return stopBroker(b)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"serve /metrics and "+observability.StatusPath+" on this address, e.g. :9100")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil,
		"origins allowed to read the status endpoint (repeatable, * for any)")
	return cmd
}

func (c *cli) transportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transports",
		Short: "List the registered channel types and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tRELIABLE\tCAPABILITIES")
			for _, name := range transport.DefaultRegistry.Names() {
				caps := transport.DefaultRegistry.GetCapabilities(name)
				fmt.Fprintf(w, "%s\t%t\t%s\n", name, caps.SupportsReliableDelivery(), caps)
			}
			return w.Flush()
		},
	}
}

func (c *cli) adaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List the registered adapter classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range broker.DefaultAdapterRegistry.Names() {
				fmt.Fprintln(c.out, name)
			}
			return nil
		},
	}
}

// startBroker and stopBroker hold the broker's configuration lock for the
// whole cascade, the lock the collector and the status handler read under.
func startBroker(b *broker.MessageBroker) error {
	return b.Reconfigure((*broker.MessageBroker).Start)
}

func stopBroker(b *broker.MessageBroker) error {
	return b.Reconfigure((*broker.MessageBroker).Stop)
}

// build loads the configuration and wires an unstarted broker. opts come
// after the options derived from the configuration.
func (c *cli) build(ctx context.Context, opts ...broker.Option) (*broker.MessageBroker, context.Context, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, ctx, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(opts) == 0 {
		opts = []broker.Option{broker.WithLogger(c.logger())}
	}
	return bootstrap.New(ctx, cfg, opts...)
}
