package nodeserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/five82/nodewatch/internal/status"
)

const unknownSize = -1

// Server answers the node status endpoints watched by nodewatch.
type Server struct {
	cfg     Config
	nodeID  string
	started time.Time
	sampler *Sampler
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
	probe   HostProbe
}

// Option customizes a Server.
type Option func(*Server)

// WithHostProbe replaces the gopsutil probe.
func WithHostProbe(p HostProbe) Option {
	return func(s *Server) { s.probe = p }
}

// WithNow replaces the wall clock used for uptime and sample stamps.
func WithNow(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Server. A blank NodeID is replaced by a random UUID.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Server {
	cfg = cfg.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		nodeID:  cfg.NodeID,
		metrics: NewMetrics(),
		logger:  logger,
		now:     time.Now,
		probe:   DefaultHostProbe(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.nodeID == "" {
		s.nodeID = uuid.NewString()
	}
	s.started = s.now()
	s.sampler = newSampler(cfg, s.probe, s.metrics, logger, s.now)
	return s
}

// NodeID returns the identifier reported in /status.
func (s *Server) NodeID() string { return s.nodeID }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Sampler returns the host sampler feeding /status.
func (s *Server) Sampler() *Sampler { return s.sampler }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/status", s.handleStatus)
	r.Get("/version", s.handleVersion)
	r.Get("/cacert", s.handleCACert)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Run listens on cfg.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve takes one sample, starts the periodic sampler and serves HTTP on ln
// until ctx is cancelled. Shutdown waits up to cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.sampler.Run(ctx); err != nil {
		s.logger.Warn("initial sample failed", "error", err)
	}

	jobs := newCronScheduler(s.logger)
	if _, err := jobs.Register(s.cfg.SampleSpec, s.sampler); err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobs.Start()
		<-gctx.Done()
		<-jobs.Stop().Done()
		return nil
	})
	g.Go(func() error {
		s.logger.Info("status endpoint listening", "addr", ln.Addr().String(), "node_id", s.nodeID)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		s.logger.Info("status endpoint stopped")
		return nil
	})
	return g.Wait()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.buildStatus(r))
}

func (s *Server) buildStatus(r *http.Request) status.NodeStatus {
	out := status.NodeStatus{
		NodeID:         s.nodeID,
		StorageSize:    unknownSize,
		MaxStorageSize: unknownSize,
		Uptime:         formatUptime(s.now().Sub(s.started)),
		OtherNodes:     []string{},
		LocalServices:  s.localServices(r),
	}
	if sample, ok := s.sampler.Latest(); ok {
		out.CPULoad = float64(sample.CPULoad)
		out.StorageSize = sample.Used
		out.MaxStorageSize = sample.Capacity
		if sample.Peers != nil {
			out.OtherNodes = append(out.OtherNodes, sample.Peers...)
		}
	}
	out.StorageSizeStr = sizeString(out.StorageSize)
	out.MaxStorageSizeStr = sizeString(out.MaxStorageSize)
	return out
}

// localServices lists the configured services. Swagger links use the host the
// request was addressed to, so browsers and watchers can follow them.
func (s *Server) localServices(r *http.Request) []status.LocalService {
	if len(s.cfg.Services) == 0 {
		return nil
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	out := make([]status.LocalService, 0, len(s.cfg.Services))
	for _, svc := range s.cfg.Services {
		ls := status.LocalService{Name: svc.Name, Version: svc.Version}
		if svc.Alias != "" {
			ls.Swagger = (&url.URL{
				Scheme: scheme,
				Host:   r.Host,
				Path:   "/" + svc.Alias + "/v" + svc.Version + "/swagger.json",
			}).String()
		}
		out = append(out, ls)
	}
	return out
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.cfg.Version))
}

func (s *Server) handleCACert(w http.ResponseWriter, _ *http.Request) {
	if s.cfg.CACertFile == "" {
		writeError(w, http.StatusNotFound, "no CA certificate configured")
		return
	}
	pem, err := os.ReadFile(s.cfg.CACertFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "CA certificate not found")
			return
		}
		s.logger.Error("read CA certificate failed", "path", s.cfg.CACertFile, "error", err)
		writeError(w, http.StatusInternalServerError, "read CA certificate failed")
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(s.cfg.CACertFile)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pem)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the {"msg": ...} body that watchers surface as a
// structured server error.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"msg": msg})
}
