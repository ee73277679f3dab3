// Package ui renders the nodewatch terminal interface with Bubble Tea.
//
// # Layout
//
//	┌──────────────────────────────────────────────────────────────┐
//	│ nodewatch  http://127.0.0.1:8080  v1.2.0  ● ONLINE  updated… │ header
//	│ <r> Refresh now   <T> Cycle theme   <h/?> Toggle help  <q> … │ command bar
//	├──────────────────────────────────────────────────────────────┤
//	│ Node ID       N1                                             │
//	│ CPU Load      42%                                            │
//	│ Storage       ██████░░░░░░  500 MB of 1.0 GB used            │ viewport
//	│ Uptime        1:02:03                                        │
//	│                                                              │
//	│ Known Nodes (2)                                              │
//	│   • N2                                                       │
//	│   • N3                                                       │
//	└──────────────────────────────────────────────────────────────┘
//
// # Data Flow
//
// The model never fetches status itself. It reads status.Store snapshots:
//
//  1. Init issues waitForChangeCmd, which blocks on Store.Changed()
//  2. Each replacement arrives as a snapshotMsg and re-renders the card
//  3. A new waitForChangeCmd is issued for the next generation
//
// The "r" key calls Refresher.Refresh(). The resulting outcome only clears
// the "Refreshing..." indicator; the new status, if any, arrives through the
// store like every scheduled poll.
//
// # Failures
//
// Failed polls are classified and logged by the scheduler, never shown here.
// The card keeps the last good status and the header's "updated HH:MM:SS"
// stamp ages. Before the first success every field shows the placeholder and
// the header shows a spinner with "Connecting...".
//
// # Themes
//
// "T" cycles Nightfox, Kanagawa and Slate and persists the choice through
// internal/prefs. Save errors are logged and otherwise ignored.
package ui
