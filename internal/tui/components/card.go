// Package components provides reusable TUI widgets for the rollview browser.
package components

import (
	"github.com/theirongolddev/rollview/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// Stat is one label/value pair of a StatLine.
type Stat struct {
	Label string
	Value string
}

// StatLine renders label/value pairs on one line, spread over width.
func StatLine(stats []Stat, width int) string {
	if len(stats) == 0 {
		return ""
	}
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)

	widths := LayoutRow(width, len(stats))
	cells := make([]string, 0, len(stats))
	for i, s := range stats {
		cell := labelStyle.Render(s.Label+" ") + valueStyle.Render(s.Value)
		cells = append(cells, lipgloss.NewStyle().Width(widths[i]).MaxWidth(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// ContentCard renders a bordered content card with an optional title.
// outerWidth controls the total rendered width including border.
func ContentCard(title, body string, outerWidth int) string {
	return card(title, body, outerWidth, theme.Active.Border)
}

// FocusedCard is a ContentCard with an accent border.
func FocusedCard(title, body string, outerWidth int) string {
	return card(title, body, outerWidth, theme.Active.BorderAccent)
}

func card(title, body string, outerWidth int, border lipgloss.Color) string {
	t := theme.Active

	contentWidth := outerWidth - 2 // subtract border chars
	if contentWidth < 10 {
		contentWidth = 10
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(contentWidth).
		Padding(0, 1)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Bold(true)

	content := ""
	if title != "" {
		content = titleStyle.Render(title) + "\n"
	}
	content += body

	return cardStyle.Render(content)
}

// CardRow joins pre-rendered card strings horizontally.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4 // 2 border + 2 padding
	if w < 10 {
		w = 10
	}
	return w
}
