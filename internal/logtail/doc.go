// Package logtail reads the tail of the nodewatch diagnostic log.
//
// The terminal UI owns stdout, so failed polls are written to a log file
// instead of the screen. `nodewatch logs` uses this package to print the
// most recent entries.
//
// # Reading
//
// Read seeks to the end of the file and walks backwards in 32 KiB chunks
// until it has collected the requested number of lines:
//
//	file:  [ ......... | chunk 3 | chunk 2 | chunk 1 ]
//	                              <-------- reads
//
// Memory is bounded by the tail that is returned, not by the file size.
// A line cut by the first chunk boundary is discarded. A missing file is
// treated as an empty log.
//
// # Filtering
//
// FilterLevel drops entries below a minimum slog level. Both the text
// handler (level=WARN) and the JSON handler ("level":"WARN") formats are
// understood, matching what internal/logging can emit.
package logtail
