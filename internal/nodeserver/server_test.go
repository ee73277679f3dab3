package nodeserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/nodewatch/internal/nodeapi"
	"github.com/five82/nodewatch/internal/status"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeProbe(cpuPct float64, used, total uint64) HostProbe {
	return HostProbe{
		CPUPercent: func(time.Duration, bool) ([]float64, error) { return []float64{cpuPct}, nil },
		DiskUsage: func(path string) (*disk.UsageStat, error) {
			return &disk.UsageStat{Path: path, Used: used, Total: total}, nil
		},
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestServer(t *testing.T, cfg Config, probe HostProbe) (*Server, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(cfg, testLogger(), WithHostProbe(probe), WithNow(clock.Now)), clock
}

func TestStatus_ReportsSample(t *testing.T) {
	peers := filepath.Join(t.TempDir(), "peers.yaml")
	require.NoError(t, os.WriteFile(peers, []byte("peers:\n  - N2\n  - \" \"\n  - N3\n"), 0o644))

	srv, clock := newTestServer(t, Config{NodeID: "N1", PeersFile: peers}, fakeProbe(42.9, 500_000_000, 1_000_000_000))
	require.NoError(t, srv.Sampler().Run(context.Background()))
	clock.t = clock.t.Add(time.Hour + 2*time.Minute + 3*time.Second)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got status.NodeStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "N1", got.NodeID)
	assert.Equal(t, float64(42), got.CPULoad)
	assert.Equal(t, int64(500_000_000), got.StorageSize)
	assert.Equal(t, int64(1_000_000_000), got.MaxStorageSize)
	assert.Equal(t, "500 MB", got.StorageSizeStr)
	assert.Equal(t, "1.0 GB", got.MaxStorageSizeStr)
	assert.Equal(t, "1:02:03", got.Uptime)
	assert.Equal(t, []string{"N2", "N3"}, got.OtherNodes)
	assert.Empty(t, got.LocalServices)
}

func TestStatus_MaxStorageOverridesVolume(t *testing.T) {
	srv, _ := newTestServer(t, Config{NodeID: "N1", MaxStorage: 2_000_000_000}, fakeProbe(1, 500_000_000, 9_000_000_000))
	require.NoError(t, srv.Sampler().Run(context.Background()))

	got := srv.buildStatus(httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, int64(2_000_000_000), got.MaxStorageSize)
	assert.Equal(t, "2.0 GB", got.MaxStorageSizeStr)
}

func TestStatus_NoSampleReportsUnknownStorage(t *testing.T) {
	srv, _ := newTestServer(t, Config{NodeID: "N1"}, fakeProbe(0, 0, 0))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, float64(-1), raw["storageSize"])
	assert.Equal(t, float64(-1), raw["maxStorageSize"])
	assert.Equal(t, "-1 B", raw["storageSizeStr"])
	assert.Equal(t, []any{}, raw["otherNodes"])
	assert.Equal(t, "0:00:00", raw["uptime"])
}

func TestStatus_LocalServicesUseRequestHost(t *testing.T) {
	cfg := Config{
		NodeID: "N1",
		Services: []ServiceConfig{
			{Name: "i5.las2peer.services.Example", Version: "1.0.0", Alias: "example"},
			{Name: "i5.las2peer.services.Plain", Version: "0.2"},
		},
	}
	srv, _ := newTestServer(t, cfg, fakeProbe(0, 1, 2))

	req := httptest.NewRequest(http.MethodGet, "http://node.example:9000/status", nil)
	got := srv.buildStatus(req)

	require.Len(t, got.LocalServices, 2)
	assert.Equal(t, "http://node.example:9000/example/v1.0.0/swagger.json", got.LocalServices[0].Swagger)
	assert.Equal(t, "", got.LocalServices[1].Swagger)
}

func TestNew_GeneratesNodeID(t *testing.T) {
	a, _ := newTestServer(t, Config{}, fakeProbe(0, 0, 0))
	b, _ := newTestServer(t, Config{}, fakeProbe(0, 0, 0))
	assert.Len(t, a.NodeID(), 36)
	assert.NotEqual(t, a.NodeID(), b.NodeID())
}

func TestVersion(t *testing.T) {
	srv, _ := newTestServer(t, Config{Version: "1.3.2"}, fakeProbe(0, 0, 0))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.3.2", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
}

func TestCACert(t *testing.T) {
	certPath := filepath.Join(t.TempDir(), "node-ca.pem")
	pem := "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"
	require.NoError(t, os.WriteFile(certPath, []byte(pem), 0o644))

	srv, _ := newTestServer(t, Config{CACertFile: certPath}, fakeProbe(0, 0, 0))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cacert", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-pem-file", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="node-ca.pem"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, pem, rec.Body.String())
}

func TestCACert_MissingIs404WithMsg(t *testing.T) {
	for name, cfg := range map[string]Config{
		"unset":   {},
		"missing": {CACertFile: filepath.Join(t.TempDir(), "nope.pem")},
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t, cfg, fakeProbe(0, 0, 0))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cacert", nil))

			require.Equal(t, http.StatusNotFound, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["msg"])
		})
	}
}

func TestUnknownRouteIsStructured404(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, fakeProbe(0, 0, 0))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"not found"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, Config{NodeID: "N1"}, fakeProbe(37.5, 10, 100))
	require.NoError(t, srv.Sampler().Run(context.Background()))

	h := srv.Handler()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))

	m := srv.Metrics()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/status", "200")))
	assert.Equal(t, float64(37), testutil.ToFloat64(m.cpuLoad))
	assert.Equal(t, float64(100), testutil.ToFloat64(m.storageCapacity))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.samplesTotal.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nodewatch_cpu_load_percent 37")
}

func TestSampler_ErrorCountedAndKeepsPrevious(t *testing.T) {
	probe := fakeProbe(10, 1, 2)
	srv, _ := newTestServer(t, Config{}, probe)
	require.NoError(t, srv.Sampler().Run(context.Background()))

	srv.sampler.probe.DiskUsage = func(string) (*disk.UsageStat, error) { return nil, errors.New("gone") }
	require.Error(t, srv.Sampler().Run(context.Background()))

	sample, ok := srv.Sampler().Latest()
	require.True(t, ok)
	assert.Equal(t, int64(1), sample.Used)
	assert.Equal(t, float64(1), testutil.ToFloat64(srv.Metrics().samplesTotal.WithLabelValues("error")))
}

func TestSampler_ExpiredSampleIsDropped(t *testing.T) {
	srv, _ := newTestServer(t, Config{SampleTTL: 20 * time.Millisecond}, fakeProbe(10, 1, 2))
	require.NoError(t, srv.Sampler().Run(context.Background()))

	_, ok := srv.Sampler().Latest()
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := srv.Sampler().Latest()
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestServe_WatcherClientRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, Config{NodeID: "N1", Version: "2.0.0"}, fakeProbe(5, 1_000, 10_000))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client, err := nodeapi.NewClient(ln.Addr().String())
	require.NoError(t, err)

	var got *status.NodeStatus
	require.Eventually(t, func() bool {
		got, err = client.FetchStatus(context.Background())
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "N1", got.NodeID)
	assert.Equal(t, "1.0 kB", got.StorageSizeStr)

	version, err := client.FetchVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", version)

	_, _, err = client.FetchCACert(context.Background())
	var reqErr *nodeapi.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	msg, ok := reqErr.Message()
	assert.True(t, ok)
	assert.NotEmpty(t, msg)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_InvalidSampleSpec(t *testing.T) {
	srv, _ := newTestServer(t, Config{SampleSpec: "every now and then"}, fakeProbe(0, 0, 0))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = srv.Serve(context.Background(), ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host-sampler")
}
