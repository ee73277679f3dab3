package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/nodewatch/internal/status"
)

// renderCard renders the node status card shown in the scrollable body.
func (m Model) renderCard() string {
	styles := m.theme.Styles()
	s := m.snapshot.Status

	var b strings.Builder
	row := func(label, value string, style lipgloss.Style) {
		b.WriteString(styles.Label.Render(label))
		b.WriteString(style.Render(value))
		b.WriteString("\n")
	}

	row("Node ID", s.NodeID, styles.Text.Bold(true))
	row("CPU Load", formatCPU(m.snapshot), styles.Text)

	b.WriteString(styles.Label.Render("Storage"))
	b.WriteString(m.renderMeter(s.StorageRatio()))
	b.WriteString("  ")
	b.WriteString(styles.Text.Render(storageText(s)))
	b.WriteString("\n")

	row("Uptime", s.Uptime, styles.Text)
	if m.caCertURL != "" {
		row("CA Cert", m.caCertURL, styles.AccentText.Underline(true))
	}

	peers := s.Peers()
	b.WriteString("\n")
	b.WriteString(styles.Section.Render(fmt.Sprintf("Known Nodes (%d)", len(peers))))
	b.WriteString("\n")
	if len(peers) == 0 {
		b.WriteString(styles.FaintText.Render("  none"))
		b.WriteString("\n")
	}
	for _, peer := range peers {
		b.WriteString(styles.FaintText.Render("  • "))
		b.WriteString(styles.Text.Render(peer))
		b.WriteString("\n")
	}

	if len(s.LocalServices) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.Section.Render(fmt.Sprintf("Local Services (%d)", len(s.LocalServices))))
		b.WriteString("\n")
		for _, svc := range s.LocalServices {
			b.WriteString("  ")
			b.WriteString(styles.Text.Render(svc.Name))
			if svc.Version != "" {
				b.WriteString(styles.MutedText.Render("  " + svc.Version))
			}
			if svc.Swagger != "" {
				b.WriteString(styles.InfoText.Render("  " + svc.Swagger))
			}
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.TrimRight(b.String(), "\n"))
}

// renderMeter draws the bounded storage meter for ratio in [0,1].
func (m Model) renderMeter(ratio float64) string {
	width := m.width - labelWidth - 32
	if width > meterMaxWidth {
		width = meterMaxWidth
	}
	if width < 10 {
		width = 10
	}

	bar := progress.New(
		progress.WithSolidFill(m.theme.MeterColor(ratio)),
		progress.WithoutPercentage(),
		progress.WithWidth(width),
	)
	bar.EmptyColor = m.theme.SurfaceAlt
	return bar.ViewAs(ratio)
}

// formatCPU renders the load as a percentage, or the placeholder before the
// first successful poll.
func formatCPU(snap status.Snapshot) string {
	if !snap.HasStatus {
		return status.Placeholder
	}
	text := strconv.FormatFloat(snap.Status.CPULoad, 'f', 1, 64)
	return strings.TrimSuffix(text, ".0") + "%"
}

// storageText prefers the node's own human-readable strings and falls back to
// SI formatting of the raw byte counts when the node leaves them blank.
func storageText(s status.NodeStatus) string {
	used := s.StorageSizeStr
	if strings.TrimSpace(used) == "" {
		used = humanize.Bytes(uint64(max(s.StorageSize, 0)))
	}
	capacity := s.MaxStorageSizeStr
	if strings.TrimSpace(capacity) == "" {
		capacity = humanize.Bytes(uint64(max(s.MaxStorageSize, 0)))
	}
	return used + " of " + capacity + " used"
}
