package poll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/nodewatch/internal/diag"
	"github.com/five82/nodewatch/internal/nodeapi"
	"github.com/five82/nodewatch/internal/status"
)

const (
	DefaultInitialDelay = time.Millisecond
	DefaultPeriod       = 5 * time.Second
	DefaultDebounce     = 300 * time.Millisecond
)

// ErrStopped is delivered to callers whose refresh was abandoned by Stop.
var ErrStopped = errors.New("poll: scheduler stopped")

// PollConfig fixes the cadence of a Scheduler for its whole lifetime.
type PollConfig struct {
	EndpointBase string
	InitialDelay time.Duration
	Period       time.Duration
	Debounce     time.Duration
}

// DefaultPollConfig returns the standard cadence for endpoint.
func DefaultPollConfig(endpoint string) PollConfig {
	return PollConfig{
		EndpointBase: endpoint,
		InitialDelay: DefaultInitialDelay,
		Period:       DefaultPeriod,
		Debounce:     DefaultDebounce,
	}
}

func (c PollConfig) withDefaults() PollConfig {
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.Period <= 0 {
		c.Period = DefaultPeriod
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	return c
}

// Sink receives every successfully fetched status. *status.Store satisfies it.
type Sink interface {
	Replace(status.NodeStatus)
}

// Outcome is the result of the single request a Refresh call was folded into.
type Outcome struct {
	Status    *status.NodeStatus
	Err       error
	Diagnosis *diag.Diagnosis
}

// State is the position of the scheduler within a poll cycle.
type State int

const (
	StateIdle State = iota
	StateRequesting
)

func (s State) String() string {
	if s == StateRequesting {
		return "requesting"
	}
	return "idle"
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithConfig overrides the default cadence.
func WithConfig(cfg PollConfig) Option {
	return func(s *Scheduler) { s.cfg = cfg }
}

// WithClassifier replaces diag.Classify.
func WithClassifier(fn func(error) diag.Diagnosis) Option {
	return func(s *Scheduler) { s.classify = fn }
}

// Scheduler decides when the node status is fetched. Every trigger (the
// initial one-shot, the recurring tick, a manual refresh) goes through
// Refresh, which folds calls landing in the same debounce window into one
// request. At most one request is in flight at a time.
type Scheduler struct {
	fetcher  nodeapi.StatusFetcher
	sink     Sink
	clock    Clock
	logger   *slog.Logger
	cfg      PollConfig
	classify func(error) diag.Diagnosis

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	stopped  bool
	initial  Timer
	ticker   Timer
	debounce Timer
	gen      uint64 // identifies the armed debounce timer
	inflight bool
	waiting  []chan Outcome
}

// New builds a Scheduler that fetches with fetcher and publishes to sink.
func New(fetcher nodeapi.StatusFetcher, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		fetcher:  fetcher,
		sink:     sink,
		clock:    SystemClock{},
		logger:   slog.Default(),
		cfg:      DefaultPollConfig(""),
		classify: diag.Classify,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg = s.cfg.withDefaults()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Config returns the cadence in use.
func (s *Scheduler) Config() PollConfig {
	return s.cfg
}

// Start arms the initial one-shot and the recurring tick. It runs until Stop
// is called or ctx is cancelled. Calling Start more than once has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.initial = s.clock.AfterFunc(s.cfg.InitialDelay, func() { s.Refresh() })
	s.ticker = s.clock.AfterFunc(s.cfg.Period, s.tick)
	s.mu.Unlock()

	s.logger.Debug("status polling started",
		"endpoint", s.cfg.EndpointBase,
		"period", s.cfg.Period,
		"debounce", s.cfg.Debounce)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.ctx.Done():
		}
	}()
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.ticker = s.clock.AfterFunc(s.cfg.Period, s.tick)
	s.mu.Unlock()
	s.Refresh()
}

// Refresh asks for a status fetch without issuing one immediately. The
// returned channel receives the outcome of the request this call is folded
// into. Refresh never blocks and never rejects a call.
func (s *Scheduler) Refresh() <-chan Outcome {
	ch := make(chan Outcome, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		ch <- Outcome{Err: ErrStopped}
		return ch
	}
	s.waiting = append(s.waiting, ch)
	s.armDebounceLocked()
	return ch
}

// State reports whether a request is currently in flight.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight {
		return StateRequesting
	}
	return StateIdle
}

// Stop cancels all timers and the in-flight request. Results that arrive
// afterwards are dropped. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for _, t := range []Timer{s.initial, s.ticker, s.debounce} {
		if t != nil {
			t.Stop()
		}
	}
	s.initial, s.ticker, s.debounce = nil, nil, nil
	waiting := s.waiting
	s.waiting = nil
	s.mu.Unlock()

	s.cancel()
	deliver(waiting, Outcome{Err: ErrStopped})
	s.logger.Debug("status polling stopped")
}

// armDebounceLocked restarts the trailing debounce window.
func (s *Scheduler) armDebounceLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.gen++
	gen := s.gen
	s.debounce = s.clock.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.debounce = nil
	if s.inflight || len(s.waiting) == 0 {
		// The waiters ride on the request issued when the current one ends.
		s.mu.Unlock()
		return
	}
	batch := s.beginLocked()
	s.mu.Unlock()

	go s.run(batch)
}

func (s *Scheduler) beginLocked() []chan Outcome {
	batch := s.waiting
	s.waiting = nil
	s.inflight = true
	return batch
}

func (s *Scheduler) run(batch []chan Outcome) {
	for batch != nil {
		outcome, publish := s.fetch()

		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			deliver(batch, Outcome{Err: ErrStopped})
			return
		}
		publish()
		s.inflight = false
		// Calls that arrived while the request was out and whose debounce
		// window has already closed go out now, back to back.
		var next []chan Outcome
		if len(s.waiting) > 0 && s.debounce == nil {
			next = s.beginLocked()
		}
		s.mu.Unlock()

		deliver(batch, outcome)
		batch = next
	}
}

// fetch performs one request. The returned publish func applies its side
// effects and is only called while the scheduler is live, under s.mu.
func (s *Scheduler) fetch() (Outcome, func()) {
	ctx := s.ctx
	st, err := s.fetcher.FetchStatus(ctx)
	if err != nil {
		d := s.classify(err)
		return Outcome{Err: err, Diagnosis: &d}, func() {
			diag.Log(ctx, s.logger, err, d)
		}
	}
	if st == nil {
		st = &status.NodeStatus{}
	}
	return Outcome{Status: st}, func() {
		s.sink.Replace(*st)
	}
}

func deliver(waiters []chan Outcome, outcome Outcome) {
	for _, ch := range waiters {
		ch <- outcome
	}
}
