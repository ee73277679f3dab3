package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/nodewatch/internal/app"
)

// globalFlags override the watcher config file.
type globalFlags struct {
	configPath  string
	prefsPath   string
	endpoint    string
	pollSeconds int
	logFile     string
	logLevel    string
}

func (g *globalFlags) options() app.Options {
	opts := app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		Endpoint:   g.endpoint,
		LogFile:    g.logFile,
		LogLevel:   g.logLevel,
	}
	if g.pollSeconds > 0 {
		opts.PollEvery = time.Duration(g.pollSeconds) * time.Second
	}
	return opts
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "nodewatch",
		Short: "Live status display for a single network node",
		Long: `nodewatch polls {endpoint}/status every few seconds and shows node identity,
CPU load, storage usage, uptime and known peers in the terminal.`,
		Version:       Version + " (" + Commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/nodewatch/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/nodewatch/prefs.toml)")
	pf.StringVar(&flags.endpoint, "endpoint", "", "node endpoint, host:port or URL with path prefix")
	pf.IntVar(&flags.pollSeconds, "poll", 0, "refresh interval in seconds (default 5)")
	pf.StringVar(&flags.logFile, "log-file", "", "diagnostic log file")
	pf.StringVar(&flags.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")

	root.AddCommand(
		newStatusCmd(flags),
		newCACertCmd(flags),
		newLogsCmd(flags),
		newServeCmd(),
	)
	return root
}
