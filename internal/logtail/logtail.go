package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const chunkSize = 32 * 1024

// Read returns at most maxLines from the end of the file at path, oldest
// first. A non-positive maxLines returns every line. A missing file yields
// no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	return readTail(file, info.Size(), maxLines)
}

// readTail walks backwards through r in fixed chunks until it has seen
// enough newlines, so only the tail of a large log is ever buffered.
func readTail(r io.ReaderAt, size int64, maxLines int) ([]string, error) {
	var (
		buf    []byte
		offset = size
	)
	for offset > 0 {
		n := int64(chunkSize)
		if offset < n {
			n = offset
		}
		offset -= n
		chunk := make([]byte, n)
		if _, err := r.ReadAt(chunk, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		buf = append(chunk, buf...)
		if maxLines > 0 && bytes.Count(bytes.TrimRight(buf, "\n"), []byte{'\n'}) >= maxLines {
			break
		}
	}

	text := strings.TrimRight(string(buf), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if offset > 0 && len(lines) > 0 {
		// The first line may have been cut mid-way by the chunk boundary.
		lines = lines[1:]
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}

// FilterLevel keeps lines whose slog level is at least min. Lines written by
// the text handler (level=WARN) and the JSON handler ("level":"WARN") are
// both recognized; lines without a level are kept so multi-line values are
// not dropped.
func FilterLevel(lines []string, min slog.Level) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		level, ok := lineLevel(line)
		if ok && level < min {
			continue
		}
		out = append(out, line)
	}
	return out
}

func lineLevel(line string) (slog.Level, bool) {
	var raw string
	switch {
	case strings.Contains(line, "level="):
		raw = line[strings.Index(line, "level=")+len("level="):]
		if end := strings.IndexByte(raw, ' '); end >= 0 {
			raw = raw[:end]
		}
	case strings.Contains(line, `"level":"`):
		raw = line[strings.Index(line, `"level":"`)+len(`"level":"`):]
		if end := strings.IndexByte(raw, '"'); end >= 0 {
			raw = raw[:end]
		}
	default:
		return 0, false
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, false
	}
	return level, true
}
