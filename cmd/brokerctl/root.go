package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/drblury/brokercore/adapters/bridge"
	"github.com/drblury/brokercore/internal/runtime/config"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
	_ "github.com/drblury/brokercore/transport/transports"
)

// envPrefix namespaces environment overrides, e.g. BROKERCORE_BROKER_ID.
const envPrefix = "BROKERCORE"

// cli carries the state shared by all subcommands of one root command.
type cli struct {
	v        *viper.Viper
	out      io.Writer
	cfgFile  string
	logLevel string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:           "brokerctl",
		Short:         "Inspect and run a message broker configuration",
		Long:          `brokerctl wires a message broker from a YAML configuration and validates, starts or reports on it.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "",
		"broker configuration file (YAML)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info",
		"log level: debug, info, warn or error")

	root.AddCommand(
		c.validateCmd(),
		c.snapshotCmd(),
		c.runCmd(),
		c.transportsCmd(),
		c.adaptersCmd(),
	)
	return root
}

// loadConfig decodes the configuration file, if any, with the strict YAML
// decoder so map keys keep their case, then applies environment overrides
// for the broker identity.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if c.cfgFile != "" {
		loaded, err := config.Load(c.cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := c.v.BindEnv("broker.id"); err != nil {
		return nil, err
	}
	if err := c.v.BindEnv("broker.managed"); err != nil {
		return nil, err
	}
	if c.v.IsSet("broker.id") {
		cfg.Broker.ID = c.v.GetString("broker.id")
	}
	if c.v.IsSet("broker.managed") {
		managed := c.v.GetBool("broker.managed")
		cfg.Broker.Managed = &managed
	}
	return cfg, nil
}

func (c *cli) logger() loggingpkg.ServiceLogger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return loggingpkg.NewSlogServiceLogger(slog.New(handler))
}
