package nodeserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a background task triggered by the cron scheduler.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// cronScheduler wraps robfig/cron with logging and a per-run timeout.
type cronScheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	started bool
}

const defaultJobTimeout = 30 * time.Second

// newCronScheduler accepts standard specs, optional seconds, and descriptors
// such as "@every 2s".
func newCronScheduler(logger *slog.Logger) *cronScheduler {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &cronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		logger:  logger,
		timeout: defaultJobTimeout,
	}
}

func (s *cronScheduler) Register(spec string, job Job) (cron.EntryID, error) {
	if job == nil {
		return 0, fmt.Errorf("scheduler: job is required")
	}
	if spec == "" {
		return 0, fmt.Errorf("scheduler: spec is required")
	}
	id, err := s.cron.AddFunc(spec, s.wrap(job))
	if err != nil {
		return 0, fmt.Errorf("scheduler: register %s: %w", job.Name(), err)
	}
	s.logger.Info("job registered", "job", job.Name(), "spec", spec)
	return id, nil
}

func (s *cronScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
}

// Stop halts the scheduler; the returned context is done once running jobs finish.
func (s *cronScheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

func (s *cronScheduler) wrap(job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.logger.Error("job failed", "job", job.Name(), "error", err, "elapsed", time.Since(start))
			return
		}
		s.logger.Debug("job completed", "job", job.Name(), "elapsed", time.Since(start))
	}
}
