package components

import (
	"strings"

	"github.com/theirongolddev/rollview/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// StatusKind selects the color of the status bar's middle segment.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusBusy
	StatusError
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// a load state in the middle and right-aligned details.
func RenderStatusBar(width int, status string, kind StatusKind, right string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	statusStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	switch kind {
	case StatusBusy:
		statusStyle = statusStyle.Foreground(t.Accent)
	case StatusError:
		statusStyle = statusStyle.Foreground(t.Error).Bold(true)
	}

	left := " [?]help  [/]search  [q]uit  "
	mid := statusStyle.Render(status)
	if right != "" {
		right += " "
	}

	if avail := width - lipgloss.Width(left) - lipgloss.Width(right); lipgloss.Width(mid) > avail {
		mid = statusStyle.Render(truncate.StringWithTail(status, uint(max(avail, 0)), "…"))
	}

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + mid + strings.Repeat(" ", padding) + right)
}
