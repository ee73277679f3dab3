package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header drops the endpoint.
	LayoutCompactWidth = 80

	// meterMaxWidth caps the storage meter on wide terminals.
	meterMaxWidth = 40

	// labelWidth is the width of the card's left-hand labels.
	labelWidth = 14

	// chromeHeight is the number of rows taken by the header and command bar.
	chromeHeight = 2
)

// Timing constants.
const (
	// uiTick re-reads the scheduler state for the activity indicator.
	uiTick = time.Second

	// versionTimeout bounds the one-off /version request.
	versionTimeout = 5 * time.Second
)
