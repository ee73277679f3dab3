// Package app is the composition root for the nodewatch TUI.
//
// # Wiring
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> ResolveConfig()     config file + flag overrides
//	       ├─────> logging.OpenFile()  diagnostic log (stdout belongs to the TUI)
//	       ├─────> prefs.Load()        theme
//	       ├─────> nodeapi.NewClient() HTTP client for {endpoint}/status
//	       ├─────> status.Store{}      shared snapshot holder
//	       ├─────> poll.New().Start()  timers, debounce, classification
//	       └─────> ui.Run()            blocks until quit
//
// The scheduler writes into the store; the UI only reads from it and asks the
// scheduler for manual refreshes. When ui.Run returns the scheduler is
// stopped, which cancels any in-flight request and discards its result.
//
// # Error Handling
//
// Fatal errors returned from Run:
//   - config file unreadable or invalid
//   - diagnostic log cannot be opened
//   - endpoint cannot be parsed
//
// Everything that goes wrong while polling is classified and logged by the
// scheduler and never ends the program.
//
// # One-shot Requests
//
// Probe runs a single status request with the same classification, for the
// `nodewatch status` command.
package app
