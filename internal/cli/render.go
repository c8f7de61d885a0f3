package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorPurple    = lipgloss.Color("#8B7EC8")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	okStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	tokenStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
	// LeftCols is the number of leading columns aligned left; the rest are
	// right-aligned. Zero means one.
	LeftCols int
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. Cells wider
// than a fixed Widths entry are truncated.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := columnWidths(t, numCols)
	leftCols := max(t.LeftCols, 1)

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	b.WriteString(rule(widths, "╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(tableRow(t.Headers, widths, numCols, func(_ int, cell string, w int) string {
			return headerStyle.Render(fmt.Sprintf(" %-*s ", w, cell))
		}))
		b.WriteString(rule(widths, "├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		b.WriteString(tableRow(row, widths, numCols, func(i int, cell string, w int) string {
			cell = Truncate(cell, w)
			pad := strings.Repeat(" ", max(w-utf8.RuneCountInString(cell), 0))
			if i < leftCols {
				return valueStyle.Render(" " + cell + pad + " ")
			}
			return valueStyle.Render(" " + pad + cell + " ")
		}))
	}
	b.WriteString(rule(widths, "╰", "┴", "╯"))

	return b.String()
}

func columnWidths(t Table, numCols int) []int {
	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
		return widths
	}
	grow := func(cells []string) {
		for i, cell := range cells {
			if i < numCols {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}
	grow(t.Headers)
	for _, row := range t.Rows {
		grow(row)
	}
	return widths
}

// rule draws a horizontal border with the given corner and junction runes.
func rule(widths []int, left, mid, right string) string {
	segs := make([]string, len(widths))
	for i, w := range widths {
		segs[i] = strings.Repeat("─", w+2)
	}
	return dimStyle.Render(left+strings.Join(segs, mid)+right) + "\n"
}

func tableRow(cells []string, widths []int, numCols int, cellFn func(i int, cell string, w int) string) string {
	sep := dimStyle.Render("│")
	var b strings.Builder
	b.WriteString(sep)
	for i := 0; i < numCols; i++ {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteString(cellFn(i, cell, widths[i]))
		b.WriteString(sep)
	}
	b.WriteString("\n")
	return b.String()
}
