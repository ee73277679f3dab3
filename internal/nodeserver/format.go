package nodeserver

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// formatUptime renders d as h:mm:ss; hours are not capped at 24.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// sizeString renders a byte count with SI units. Unknown sizes are -1 and
// render as "-1 B".
func sizeString(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.Bytes(uint64(n))
}
