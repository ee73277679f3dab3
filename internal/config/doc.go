// Package config loads the nodewatch watcher configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/nodewatch/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/nodewatch/config.toml
//   - Endpoint: http://127.0.0.1:8080
//   - Poll period: 5s
//   - Diagnostic log: ~/.local/state/nodewatch/nodewatch.log
//   - Log level: info
//
// # TOML Format
//
//	endpoint = "http://127.0.0.1:8080"
//	poll_seconds = 5
//	log_file = "~/.local/state/nodewatch/nodewatch.log"
//	log_level = "info"
//
// All fields are optional. Tilde expansion is performed on log_file.
// The endpoint may be a bare host:port or a URL with a path prefix; it is
// normalized later by nodeapi.NewClient.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, and TOML parse errors. A missing file is not an error.
//
// Command-line flags in cmd/nodewatch override the values returned here.
package config
