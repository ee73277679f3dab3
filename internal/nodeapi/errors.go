package nodeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// RequestError describes a failed call against the node API.
//
// Done reports whether the transport completed the exchange. A completed
// exchange with StatusCode 0 means no HTTP response was received at all
// (refused connection, DNS failure, reset, timeout).
type RequestError struct {
	URL        string
	Done       bool
	StatusCode int
	StatusText string
	Payload    map[string]any // decoded JSON error body, nil when absent
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Done && e.StatusCode == 0:
		return fmt.Sprintf("connect %s: %v", e.URL, e.Err)
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("api %s returned status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("api %s returned status %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("request %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("request %s failed", e.URL)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Message returns the machine-readable "msg" carried by an error body.
func (e *RequestError) Message() (string, bool) {
	if e == nil || e.Payload == nil {
		return "", false
	}
	return truthyString(e.Payload["msg"])
}

// truthyString reports the value as text when it would be truthy in the
// JSON body sense: non-empty strings, non-zero numbers, true, objects, arrays.
func truthyString(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		return value, value != ""
	case bool:
		if !value {
			return "", false
		}
		return "true", true
	case float64:
		if value == 0 {
			return "", false
		}
		return fmt.Sprint(value), true
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value), true
		}
		return string(raw), true
	}
}

// statusText strips the leading code from an http.Response.Status value.
func statusText(status string, code int) string {
	prefix := strconv.Itoa(code)
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(status), prefix))
	if text == "" {
		return http.StatusText(code)
	}
	return text
}
