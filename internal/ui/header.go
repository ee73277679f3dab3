package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: logo, endpoint, version, activity and
// the last successful update. Failed polls never show up here; a stale
// "updated" stamp is the only sign of trouble.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("nodewatch", styles.Logo)}

	if !compact && m.endpoint != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.endpoint, 48), styles.MutedText))
	}

	if m.nodeVersion != "" {
		parts = append(parts, bg.Render("v"+strings.TrimPrefix(m.nodeVersion, "v"), styles.InfoText))
	}

	if activity := m.activityLabel(); activity != "" {
		parts = append(parts, m.spinner.View()+bg.Space()+bg.Render(activity, styles.WarningText.Bold(true)))
	} else if m.snapshot.HasStatus {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	if stamp := formatUpdated(m.snapshot.LastUpdated, time.Now()); stamp != "" {
		parts = append(parts, bg.Render(stamp, styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// activityLabel describes what the watcher is doing right now, or "" when idle.
func (m Model) activityLabel() string {
	switch {
	case !m.snapshot.HasStatus:
		return "Connecting..."
	case m.refreshing > 0 || m.requesting:
		return "Refreshing..."
	default:
		return ""
	}
}

// formatUpdated formats the last successful update with a relative age.
func formatUpdated(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}

	stamp := "updated " + at.Format("15:04:05")
	age := now.Sub(at)
	switch {
	case age < time.Minute:
	case age < time.Hour:
		stamp += " (" + strconv.Itoa(int(age.Minutes())) + "m ago)"
	default:
		stamp += " (" + strconv.Itoa(int(age.Hours())) + "h ago)"
	}
	return stamp
}

// renderCommandBar renders the key hints below the header.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, bg.Pair("<"+h.Key+">", keyStyle, h.Desc, styles.MutedText))
	}

	return styles.Footer.Width(m.width).Render(bg.Join(parts, "   "))
}
