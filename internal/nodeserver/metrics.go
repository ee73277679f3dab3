package nodeserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "nodewatch"

// Metrics holds the Prometheus collectors for one server. Each server owns its
// registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	samplesTotal    *prometheus.CounterVec
	cpuLoad         prometheus.Gauge
	storageUsed     prometheus.Gauge
	storageCapacity prometheus.Gauge
	knownPeers      prometheus.Gauge
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		),
		samplesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "sampler",
				Name:      "runs_total",
				Help:      "Host samples taken, by result.",
			},
			[]string{"result"},
		),
		cpuLoad: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cpu_load_percent",
			Help:      "Most recent CPU load sample in percent.",
		}),
		storageUsed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "storage_used_bytes",
			Help:      "Bytes used on the node's data volume.",
		}),
		storageCapacity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "storage_capacity_bytes",
			Help:      "Storage capacity reported to watchers.",
		}),
		knownPeers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "known_peers",
			Help:      "Number of other nodes this node knows about.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeSample(s Sample) {
	m.samplesTotal.WithLabelValues("ok").Inc()
	m.cpuLoad.Set(float64(s.CPULoad))
	m.storageUsed.Set(float64(s.Used))
	m.storageCapacity.Set(float64(s.Capacity))
	m.knownPeers.Set(float64(len(s.Peers)))
}

func (m *Metrics) observeSampleError() {
	m.samplesTotal.WithLabelValues("error").Inc()
}

// Middleware counts requests by chi route pattern so unknown paths do not
// create one series each.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
	})
}
