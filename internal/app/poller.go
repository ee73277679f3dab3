package app

import (
	"context"
	"log/slog"

	"github.com/five82/nodewatch/internal/config"
	"github.com/five82/nodewatch/internal/diag"
	"github.com/five82/nodewatch/internal/nodeapi"
	"github.com/five82/nodewatch/internal/poll"
	"github.com/five82/nodewatch/internal/status"
)

// pollConfig derives the scheduler cadence. Only the period is configurable;
// the initial delay and debounce window are fixed.
func pollConfig(cfg config.Config) poll.PollConfig {
	pc := poll.DefaultPollConfig(cfg.Endpoint)
	if cfg.PollEvery > 0 {
		pc.Period = cfg.PollEvery
	}
	return pc
}

func newScheduler(fetcher nodeapi.StatusFetcher, sink poll.Sink, cfg config.Config, logger *slog.Logger) *poll.Scheduler {
	return poll.New(fetcher, sink,
		poll.WithConfig(pollConfig(cfg)),
		poll.WithLogger(logger),
	)
}

// Probe performs a single status request outside any schedule. On failure the
// error is classified the same way the scheduler classifies it.
func Probe(ctx context.Context, fetcher nodeapi.StatusFetcher) (*status.NodeStatus, *diag.Diagnosis) {
	got, err := fetcher.FetchStatus(ctx)
	if err != nil {
		d := diag.Classify(err)
		return nil, &d
	}
	return got, nil
}
