// Package status holds the node status model shown by nodewatch.
//
// # Overview
//
// NodeStatus mirrors the JSON document served at {endpoint}/status. The Store
// keeps exactly one NodeStatus at a time and hands out copies, so the poller
// (writer) and the terminal UI (reader) never share slices.
//
// # Update Semantics
//
// Replace swaps the whole value. There is no field-by-field merge: a payload
// that omits otherNodes yields an empty peer list, not the previous one.
//
//	store.Replace(next)
//	→ snapshot.Status     = next (deep copy)
//	→ snapshot.HasStatus  = true
//	→ snapshot.Generation++
//	→ Changed() channel closed, a fresh one armed
//
// Failed polls never reach the Store; the previous value stays on screen.
//
// # Placeholder
//
// Until the first successful poll the Store holds Initial(): every text field
// is "..." and MaxStorageSize is 1. Payloads reporting a non-positive capacity
// are stored with MaxStorageSize 1 as well, which keeps StorageRatio defined.
package status
