package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/five82/nodewatch/internal/logging"
	"github.com/five82/nodewatch/internal/nodeserver"
)

// serveFlagKeys maps serve flags to their config keys.
var serveFlagKeys = map[string]string{
	"addr":         "addr",
	"node-id":      "node_id",
	"node-version": "version",
	"data-dir":     "data_dir",
	"max-storage":  "max_storage",
	"peers-file":   "peers_file",
	"cacert-file":  "cacert_file",
	"sample-spec":  "sample_spec",
	"log-level":    "log_level",
	"log-format":   "log_format",
}

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a reference node status endpoint backed by this host",
		Long: `Serve /status, /version, /cacert and /metrics from this machine's CPU and
disk usage. Settings come from nodewatch-serve.yaml, NODEWATCH_* environment
variables and the flags below, in increasing order of precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			if err := bindServeFlags(v, cmd); err != nil {
				return err
			}
			cfg, err := nodeserver.LoadConfig(v, configFile)
			if err != nil {
				return err
			}
			logger := logging.New(logging.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			})
			return nodeserver.New(cfg, logger).Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&configFile, "serve-config", "", "serve config file (default ./nodewatch-serve.yaml)")
	f.String("addr", "127.0.0.1:8080", "listen address")
	f.String("node-id", "", "node identifier (random UUID when empty)")
	f.String("node-version", "dev", "version reported by /version")
	f.String("data-dir", ".", "directory whose volume is reported as storage")
	f.Int64("max-storage", 0, "storage capacity in bytes (0 uses the volume size)")
	f.String("peers-file", "", "YAML file listing known peers")
	f.String("cacert-file", "", "PEM file served by /cacert")
	f.String("sample-spec", "@every 2s", "cron spec for host sampling")
	// Shadows the root's persistent flag, which configures the TUI log file instead.
	f.String("log-level", "info", "log level")
	f.String("log-format", "text", "log format: text or json")
	return cmd
}

func bindServeFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range serveFlagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
