package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/rollview/internal/cli"
	"github.com/theirongolddev/rollview/internal/loader"
	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// transcriptOptions controls how the transcript pane renders.
type transcriptOptions struct {
	width            int
	wrap             bool
	expand           bool
	showInstructions bool
}

// foldedLines is how many body lines a folded command keeps visible.
const foldedLines = 2

// renderSnapshot renders the transcript pane content for snap.
func renderSnapshot(snap loader.Snapshot, opts transcriptOptions) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	switch snap.State {
	case loader.StateIdle:
		return muted.Render("Select a session to view its transcript.")
	case loader.StateLoading:
		return muted.Render("Loading transcript…")
	case loader.StateFailed:
		errStyle := lipgloss.NewStyle().Foreground(t.Error).Bold(true)
		out := errStyle.Render(snap.Message)
		if snap.Err != nil {
			out += "\n\n" + lipgloss.NewStyle().Foreground(t.TextDim).Render(opts.fit(snap.Err.Error()))
		}
		return out
	}

	return renderTranscript(snap.Transcript, opts)
}

func renderTranscript(tr model.Transcript, opts transcriptOptions) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	if opts.showInstructions {
		label := lipgloss.NewStyle().Foreground(t.Meta).Bold(true)
		b.WriteString(label.Render("Instructions"))
		b.WriteString("\n")
		if tr.Instructions == "" {
			b.WriteString(muted.Render("(none)"))
		} else {
			b.WriteString(muted.Render(opts.fit(tr.Instructions)))
		}
		b.WriteString("\n\n")
	}

	if len(tr.Messages) == 0 {
		b.WriteString(muted.Render("No messages in this session."))
		return b.String()
	}

	for i, m := range tr.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderMessage(m, opts))
	}
	return b.String()
}

func renderMessage(m model.Message, opts transcriptOptions) string {
	t := theme.Active
	text := lipgloss.NewStyle().Foreground(t.TextPrimary)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	switch m.Kind {
	case model.KindUserText:
		return lipgloss.NewStyle().Foreground(t.User).Bold(true).Render("▌ You") + "\n" +
			text.Render(opts.fit(m.Content))
	case model.KindAgentText:
		if m.Tone == model.ToneReasoning {
			return muted.Italic(true).Render("▌ Thinking") + "\n" + muted.Render(opts.fit(m.Content))
		}
		return lipgloss.NewStyle().Foreground(t.Agent).Bold(true).Render("▌ Agent") + "\n" +
			text.Render(opts.fit(m.Content))
	case model.KindCommand:
		return renderCommand(m, opts)
	case model.KindPlan:
		return renderPlan(m, opts)
	default:
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("▌ "+string(m.Kind)) + "\n" +
			muted.Render(opts.fit(m.Content))
	}
}

func renderCommand(m model.Message, opts transcriptOptions) string {
	t := theme.Active
	prompt := lipgloss.NewStyle().Foreground(t.Command).Bold(true)
	code := lipgloss.NewStyle().Foreground(t.TextPrimary)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)

	if m.Collapse == nil {
		return prompt.Render("$") + " " + code.Render(opts.fit(m.Content))
	}

	lines := strings.Split(m.Content, "\n")
	marker := "▾"
	shown := lines
	if !opts.expand {
		marker = "▸"
		if len(shown) > foldedLines {
			shown = shown[:foldedLines]
		}
	}

	var b strings.Builder
	b.WriteString(prompt.Render("$ " + marker + " " + m.Collapse.Label))
	b.WriteString("\n")
	b.WriteString(dim.Render(opts.fit(strings.Join(shown, "\n"))))
	if hidden := len(lines) - len(shown); hidden > 0 {
		b.WriteString("\n")
		b.WriteString(dim.Italic(true).Render(fmt.Sprintf("… %d more lines (enter to expand)", hidden)))
	}
	return b.String()
}

func renderPlan(m model.Message, opts transcriptOptions) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.Meta).Bold(true)

	var b strings.Builder
	b.WriteString(label.Render("▌ Plan"))

	highlighted := false
	for _, step := range m.Steps {
		style := lipgloss.NewStyle().Foreground(t.TextPrimary)
		switch {
		case step.Status == model.StepInProgress && !highlighted:
			style = lipgloss.NewStyle().Foreground(t.StepActive).Bold(true)
			highlighted = true
		case step.Status == model.StepCompleted:
			style = lipgloss.NewStyle().Foreground(t.StepDone)
		case step.Status == model.StepPending:
			style = lipgloss.NewStyle().Foreground(t.TextMuted)
		}
		b.WriteString("\n")
		b.WriteString(style.Render(opts.fit(cli.PlanIcon(step.Status) + " " + step.Text)))
	}
	return b.String()
}

// fit wraps s to the pane width when wrapping is on, and otherwise leaves
// lines for the viewport to clip.
func (o transcriptOptions) fit(s string) string {
	if !o.wrap || o.width <= 0 {
		return s
	}
	return wordwrap.String(s, o.width)
}
