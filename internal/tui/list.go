package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/rollview/internal/cli"
	"github.com/theirongolddev/rollview/internal/tui/components"
	"github.com/theirongolddev/rollview/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// listState tracks the session list pane.
type listState struct {
	cursor int
	offset int

	searching bool
	input     textinput.Model
	query     string

	renderedFor string // session id currently shown in the transcript viewport
}

func (l *listState) startSearch() {
	ti := textinput.New()
	ti.Placeholder = "cwd, id or prompt..."
	ti.CharLimit = 120
	ti.Width = 30
	ti.SetValue(l.query)
	ti.Focus()
	l.input = ti
	l.searching = true
}

func (l *listState) applySearch() {
	l.query = strings.TrimSpace(l.input.Value())
	l.searching = false
	l.cursor, l.offset = 0, 0
}

// move shifts the cursor by delta within n rows and reports whether it moved.
func (l *listState) move(delta, n int) bool {
	if n == 0 {
		return false
	}
	next := l.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > n-1 {
		next = n - 1
	}
	if next == l.cursor {
		return false
	}
	l.cursor = next
	return true
}

func (l *listState) clamp(n int) {
	if l.cursor > n-1 {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.offset > l.cursor {
		l.offset = l.cursor
	}
}

// scrollTo keeps the cursor inside a window of rows lines.
func (l *listState) scrollTo(rows int) {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
}

func (a App) renderList(outerW int) string {
	t := theme.Active
	inner := components.CardInnerWidth(outerW)
	rows := a.listRows()
	visible := a.visibleSessions()

	l := a.list
	l.scrollTo(rows)

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true)

	home, _ := os.UserHomeDir()

	var b strings.Builder
	switch {
	case l.searching:
		b.WriteString(mutedStyle.Render("/ ") + l.input.View())
		b.WriteString("\n")
	case l.query != "":
		b.WriteString(mutedStyle.Render(cli.Truncate(fmt.Sprintf("filter: %s (%d)", l.query, len(visible)), inner)))
		b.WriteString("\n")
	}

	if len(visible) == 0 {
		msg := "No sessions found"
		if l.query != "" {
			msg = "No sessions match"
		}
		b.WriteString(dimStyle.Render(msg))
		return a.listCard(b.String(), outerW)
	}

	end := l.offset + rows
	if end > len(visible) {
		end = len(visible)
	}
	for i := l.offset; i < end; i++ {
		s := visible[i]
		stamp := cli.FormatStart(s.StartedAt)
		label := s.Preview
		if label == "" {
			label = cli.ShortenPath(s.CWD, home)
		}
		if label == "" {
			label = cli.ShortID(s.SessionID)
		}
		line := fmt.Sprintf("%-16s %s", stamp, label)
		line = cli.Truncate(line, inner)

		if i == l.cursor {
			pad := inner - lipgloss.Width(line)
			if pad > 0 {
				line += strings.Repeat(" ", pad)
			}
			b.WriteString(selStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return a.listCard(b.String(), outerW)
}

func (a App) listCard(body string, outerW int) string {
	body = padHeight(body, a.bodyHeight()-paneOverhead)
	title := fmt.Sprintf("Sessions (%d)", len(a.visibleSessions()))
	if a.focus == focusList {
		return components.FocusedCard(title, body, outerW)
	}
	return components.ContentCard(title, body, outerW)
}

// padHeight pads s with blank lines up to h lines, truncating longer input.
func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
