// Package poll schedules node status fetches.
//
// # Cadence
//
// Start arms two timers: a one-shot after InitialDelay (1ms, effectively the
// next tick) and a recurring tick every Period (5s). The user's manual
// refresh key calls the same Refresh method, so all three triggers are
// equivalent.
//
//	t=0        Start()
//	t=1ms      initial  → Refresh()
//	t=301ms              → FetchStatus   (debounce window closed)
//	t=5000ms   tick     → Refresh()
//	t=5300ms             → FetchStatus
//	...
//
// # Coalescing
//
// Refresh never fetches directly. It joins the pending batch and restarts a
// trailing Debounce (300ms) window. When the window closes one request is
// issued and every caller in the batch receives its Outcome. Calls made while
// a request is in flight form the next batch, which goes out once both the
// window has closed and the current request has finished. Requests are
// therefore strictly sequential and no call is ever rejected.
//
// # Cycle
//
//	Idle ──Refresh/window closes──> Requesting ──success──> Idle (store replaced)
//	                                           └─failure──> Idle (diagnosis logged)
//
// A failed cycle is not retried; the next tick is the recovery path.
//
// # Teardown
//
// Stop (or cancelling the context passed to Start) releases every timer and
// cancels the in-flight request. A response that still arrives is dropped:
// the store is not touched and nothing is logged.
//
// # Testing
//
// Timers come from the Clock interface. Tests substitute a manual clock and
// advance it explicitly instead of sleeping.
package poll
