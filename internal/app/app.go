package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/five82/nodewatch/internal/config"
	"github.com/five82/nodewatch/internal/logging"
	"github.com/five82/nodewatch/internal/nodeapi"
	"github.com/five82/nodewatch/internal/prefs"
	"github.com/five82/nodewatch/internal/status"
	"github.com/five82/nodewatch/internal/ui"
)

// Options configure the nodewatch application. Non-zero fields override the
// values read from the config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/nodewatch/prefs.toml
	Endpoint   string
	PollEvery  time.Duration
	LogFile    string
	LogLevel   string
}

// ResolveConfig loads the config file and applies the command-line overrides.
func ResolveConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if opts.PollEvery > 0 {
		cfg.PollEvery = opts.PollEvery
	}
	if logFile := strings.TrimSpace(opts.LogFile); logFile != "" {
		expanded, err := config.ExpandPath(logFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("resolve log file: %w", err)
		}
		cfg.LogFile = expanded
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	return cfg, nil
}

// Run boots the nodewatch TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := ResolveConfig(opts)
	if err != nil {
		return err
	}

	logger, closer, err := logging.OpenFile(cfg.LogFile, logging.Options{Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("open diagnostic log: %w", err)
	}
	defer closer.Close()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := nodeapi.NewClient(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("init node client: %w", err)
	}

	store := &status.Store{}
	scheduler := newScheduler(client, store, cfg, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("watcher started",
		"endpoint", client.Endpoint(),
		"period", scheduler.Config().Period,
	)
	defer logger.Info("watcher stopped")

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Refresher: scheduler,
		Version:   client.FetchVersion,
		Logger:    logger,
		Endpoint:  client.Endpoint(),
		CACertURL: client.CACertURL(),
		ThemeName: userPrefs.Theme,
		PrefsPath: prefsPath,
	})
}
