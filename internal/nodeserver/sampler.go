package nodeserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
)

// HostProbe reads host statistics. Fields are swappable for tests.
type HostProbe struct {
	CPUPercent func(interval time.Duration, percpu bool) ([]float64, error)
	DiskUsage  func(path string) (*disk.UsageStat, error)
}

// DefaultHostProbe reads the real host through gopsutil.
func DefaultHostProbe() HostProbe {
	return HostProbe{
		CPUPercent: cpu.Percent,
		DiskUsage:  disk.Usage,
	}
}

// Sample is one reading of the node's resources.
type Sample struct {
	CPULoad  int // whole percent
	Used     int64
	Capacity int64
	Peers    []string
	At       time.Time
}

const sampleKey = "host-sample"

// Sampler collects host samples and keeps the latest one in a TTL cache.
// A sample older than the TTL is dropped, so a stalled sampler shows up as
// unknown storage rather than stale numbers.
type Sampler struct {
	probe      HostProbe
	dataDir    string
	maxStorage int64
	peersFile  string
	cache      *gocache.Cache
	ttl        time.Duration
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func newSampler(cfg Config, probe HostProbe, metrics *Metrics, logger *slog.Logger, now func() time.Time) *Sampler {
	return &Sampler{
		probe:      probe,
		dataDir:    cfg.DataDir,
		maxStorage: cfg.MaxStorage,
		peersFile:  cfg.PeersFile,
		cache:      gocache.New(cfg.SampleTTL, 2*cfg.SampleTTL),
		ttl:        cfg.SampleTTL,
		metrics:    metrics,
		logger:     logger,
		now:        now,
	}
}

// Name implements Job.
func (s *Sampler) Name() string { return "host-sampler" }

// Run takes one sample and caches it. It implements Job.
func (s *Sampler) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sample, err := s.collect()
	if err != nil {
		s.metrics.observeSampleError()
		return err
	}
	s.cache.Set(sampleKey, sample, s.ttl)
	s.metrics.observeSample(sample)
	return nil
}

// Latest returns the cached sample, if it has not expired.
func (s *Sampler) Latest() (Sample, bool) {
	raw, ok := s.cache.Get(sampleKey)
	if !ok {
		return Sample{}, false
	}
	sample, ok := raw.(Sample)
	return sample, ok
}

func (s *Sampler) collect() (Sample, error) {
	sample := Sample{At: s.now()}

	percents, err := s.probe.CPUPercent(0, false)
	if err != nil {
		return Sample{}, fmt.Errorf("sample cpu: %w", err)
	}
	if len(percents) > 0 {
		sample.CPULoad = int(percents[0])
	}

	usage, err := s.probe.DiskUsage(s.dataDir)
	if err != nil {
		return Sample{}, fmt.Errorf("sample disk %s: %w", s.dataDir, err)
	}
	sample.Used = int64(usage.Used)
	sample.Capacity = int64(usage.Total)
	if s.maxStorage > 0 {
		sample.Capacity = s.maxStorage
	}

	peers, err := LoadPeers(s.peersFile)
	if err != nil {
		// Peers are advisory; keep the resource numbers.
		s.logger.Warn("load peers failed", "path", s.peersFile, "error", err)
	}
	sample.Peers = peers

	return sample, nil
}
