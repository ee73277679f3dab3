package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Format: "json", Output: &buf}).Info("hello", "k", "v")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("json output %q: %v", buf.String(), err)
	}
	if line["msg"] != "hello" || line["k"] != "v" {
		t.Fatalf("line = %v", line)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Output: &buf})
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("output = %q, want only warn", buf.String())
	}
}

func TestOpenFile_CreatesDirsAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nodewatch.log")

	for _, msg := range []string{"first", "second"} {
		logger, closer, err := OpenFile(path, Options{})
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		logger.Info(msg)
		if err := closer.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
		t.Fatalf("log = %q, want both lines", data)
	}
}

func TestOpenFile_EmptyPathErrors(t *testing.T) {
	if _, _, err := OpenFile("  ", Options{}); err == nil {
		t.Fatalf("OpenFile returned nil error, want error")
	}
}
