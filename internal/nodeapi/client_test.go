package nodeapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultEndpoint {
		t.Fatalf("default endpoint = %q, want %q", u.String(), DefaultEndpoint)
	}

	u, err = parseBaseURL("example.com:1234/las2peer/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "example.com:1234" {
		t.Fatalf("scheme/host = %q/%q, want http/example.com:1234", u.Scheme, u.Host)
	}
	if u.Path != "/las2peer" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func TestClient_URLsKeepPathPrefix(t *testing.T) {
	c, err := NewClient("http://x:8080/las2peer/")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.StatusURL(); got != "http://x:8080/las2peer/status" {
		t.Fatalf("StatusURL = %q", got)
	}
	if got := c.CACertURL(); got != "http://x:8080/las2peer/cacert" {
		t.Fatalf("CACertURL = %q", got)
	}

	c, err = NewClient("x:8080")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.StatusURL(); got != "http://x:8080/status" {
		t.Fatalf("StatusURL = %q", got)
	}
}

func TestClient_FetchesEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/node/status":
			gotUserAgent = r.Header.Get("User-Agent")
			gotAccept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"nodeId":"N1","cpuLoad":12,"storageSize":500,"maxStorageSize":1000,` +
				`"storageSizeStr":"500MB","maxStorageSizeStr":"1GB","uptime":"2h","otherNodes":["N2","N3"],` +
				`"localServices":[{"name":"svc","version":"1.0","swagger":""}]}`))
		case "/node/version":
			_, _ = w.Write([]byte("1.2.3\n"))
		case "/node/cacert":
			w.Header().Set("Content-Disposition", `attachment; filename="node-ca.pem"`)
			_, _ = w.Write([]byte("-----BEGIN CERTIFICATE-----\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL + "/node")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	st, err := c.FetchStatus(ctx)
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if st.NodeID != "N1" || st.CPULoad != 12 || st.MaxStorageSize != 1000 || st.MaxStorageSizeStr != "1GB" {
		t.Fatalf("FetchStatus payload = %#v", st)
	}
	if len(st.OtherNodes) != 2 || st.OtherNodes[0] != "N2" || st.OtherNodes[1] != "N3" {
		t.Fatalf("OtherNodes = %v, want [N2 N3]", st.OtherNodes)
	}
	if len(st.LocalServices) != 1 || st.LocalServices[0].Name != "svc" {
		t.Fatalf("LocalServices = %#v", st.LocalServices)
	}
	if !strings.HasPrefix(gotUserAgent, "nodewatch/") {
		t.Fatalf("User-Agent = %q, want nodewatch/*", gotUserAgent)
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q, want application/json", gotAccept)
	}

	version, err := c.FetchVersion(ctx)
	if err != nil || version != "1.2.3" {
		t.Fatalf("FetchVersion = %q, %v; want 1.2.3", version, err)
	}

	pem, name, err := c.FetchCACert(ctx)
	if err != nil {
		t.Fatalf("FetchCACert returned error: %v", err)
	}
	if name != "node-ca.pem" || !strings.HasPrefix(string(pem), "-----BEGIN") {
		t.Fatalf("FetchCACert = %q, %q", name, pem)
	}
}

func TestClient_HTTPErrorsBecomeRequestErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/structured/status":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"msg":"node is shutting down"}`))
		case "/plain/status":
			http.Error(w, "nope", http.StatusInternalServerError)
		case "/garbled/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	fetch := func(prefix string) *RequestError {
		t.Helper()
		c, err := NewClient(server.URL + prefix)
		if err != nil {
			t.Fatalf("NewClient returned error: %v", err)
		}
		_, err = c.FetchStatus(context.Background())
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("FetchStatus(%s) error = %v, want *RequestError", prefix, err)
		}
		return reqErr
	}

	structured := fetch("/structured")
	if structured.StatusCode != 503 || structured.StatusText != "Service Unavailable" {
		t.Fatalf("structured status = %d %q", structured.StatusCode, structured.StatusText)
	}
	if msg, ok := structured.Message(); !ok || msg != "node is shutting down" {
		t.Fatalf("Message = %q, %v", msg, ok)
	}

	plain := fetch("/plain")
	if plain.StatusCode != 500 || plain.Payload != nil {
		t.Fatalf("plain = %#v, want status 500 without payload", plain)
	}
	if !strings.Contains(plain.Error(), "returned status 500") {
		t.Fatalf("plain error = %q, want it to mention status 500", plain.Error())
	}

	garbled := fetch("/garbled")
	if garbled.StatusCode != 200 || !strings.Contains(garbled.Err.Error(), "decode response") {
		t.Fatalf("garbled = %#v, want decode error on status 200", garbled)
	}
}

func TestClient_UnreachableIsDoneWithStatusZero(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c, err := NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchStatus(context.Background())

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if !reqErr.Done || reqErr.StatusCode != 0 {
		t.Fatalf("RequestError = %#v, want Done with status 0", reqErr)
	}
	if reqErr.URL != "http://"+addr+"/status" {
		t.Fatalf("URL = %q", reqErr.URL)
	}
}

func TestMessage_Truthiness(t *testing.T) {
	tests := []struct {
		payload map[string]any
		want    string
		ok      bool
	}{
		{nil, "", false},
		{map[string]any{}, "", false},
		{map[string]any{"msg": ""}, "", false},
		{map[string]any{"msg": false}, "", false},
		{map[string]any{"msg": float64(0)}, "", false},
		{map[string]any{"msg": "X"}, "X", true},
		{map[string]any{"msg": float64(42)}, "42", true},
	}
	for _, tt := range tests {
		got, ok := (&RequestError{Payload: tt.payload}).Message()
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Message(%v) = %q, %v; want %q, %v", tt.payload, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAttachmentName(t *testing.T) {
	if got := attachmentName(""); got != "ca.pem" {
		t.Fatalf("attachmentName empty = %q", got)
	}
	if got := attachmentName(`attachment; filename="../etc/passwd"`); got != "ca.pem" {
		t.Fatalf("attachmentName traversal = %q, want ca.pem", got)
	}
	if got := attachmentName(`attachment; filename=root.pem`); got != "root.pem" {
		t.Fatalf("attachmentName = %q, want root.pem", got)
	}
}
