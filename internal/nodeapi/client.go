package nodeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/nodewatch/internal/status"
)

// StatusFetcher is implemented by *Client and can be replaced in tests.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*status.NodeStatus, error)
}

// Ensure Client implements StatusFetcher at compile time.
var _ StatusFetcher = (*Client)(nil)

// Client talks to a node's HTTP status API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	DefaultEndpoint  = "http://127.0.0.1:8080"
	defaultUserAgent = "nodewatch/0.1"
	defaultCertName  = "ca.pem"
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 64 * 1024
)

// NewClient builds a Client for endpoint, which may be a bare host:port or a
// URL with a path prefix such as http://node:8080/las2peer.
func NewClient(endpoint string) (*Client, error) {
	base, err := parseBaseURL(endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Endpoint returns the normalized endpoint base.
func (c *Client) Endpoint() string {
	return c.baseURL.String()
}

// StatusURL returns the absolute status document URL.
func (c *Client) StatusURL() string {
	return c.resolve("status").String()
}

// CACertURL returns the absolute URL of the node's CA certificate download.
func (c *Client) CACertURL() string {
	return c.resolve("cacert").String()
}

// FetchStatus retrieves the node status document.
func (c *Client) FetchStatus(ctx context.Context) (*status.NodeStatus, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload status.NodeStatus
	if err := c.getJSON(ctx, "status", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchVersion retrieves the node software version.
func (c *Client) FetchVersion(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	body, _, err := c.get(ctx, "version", "text/plain")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// FetchCACert downloads the node's CA certificate. The returned name is the
// attachment filename suggested by the node.
func (c *Client) FetchCACert(ctx context.Context) ([]byte, string, error) {
	if c == nil {
		return nil, "", fmt.Errorf("client is nil")
	}
	body, header, err := c.get(ctx, "cacert", "application/x-pem-file")
	if err != nil {
		return nil, "", err
	}
	return body, attachmentName(header.Get("Content-Disposition")), nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	reqURL := c.resolve(path)
	resp, err := c.do(ctx, reqURL, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return httpError(reqURL, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &RequestError{
			URL:        reqURL.String(),
			Done:       true,
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp.Status, resp.StatusCode),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, accept string) ([]byte, http.Header, error) {
	reqURL := c.resolve(path)
	resp, err := c.do(ctx, reqURL, accept)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, nil, httpError(reqURL, resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &RequestError{
			URL:  reqURL.String(),
			Done: true,
			Err:  fmt.Errorf("read response: %w", err),
		}
	}
	return body, resp.Header, nil
}

func (c *Client) do(ctx context.Context, reqURL *url.URL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &RequestError{URL: reqURL.String(), Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		// No response: the exchange is over but carried no status.
		return nil, &RequestError{URL: reqURL.String(), Done: true, Err: fmt.Errorf("execute request: %w", err)}
	}
	return resp, nil
}

func httpError(reqURL *url.URL, resp *http.Response) error {
	reqErr := &RequestError{
		URL:        reqURL.String(),
		Done:       true,
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp.Status, resp.StatusCode),
		Err:        fmt.Errorf("request failed with status code %d", resp.StatusCode),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return reqErr
	}
	// Only JSON objects count as a structured body; plain text is ignored.
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		reqErr.Payload = payload
	}
	return reqErr
}

func (c *Client) resolve(path string) *url.URL {
	return c.baseURL.JoinPath(path)
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return defaultCertName
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return defaultCertName
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" || strings.ContainsAny(name, `/\`) {
		return defaultCertName
	}
	return name
}

func parseBaseURL(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse endpoint %q: missing host", endpoint)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
