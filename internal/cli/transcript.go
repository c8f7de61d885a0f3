package cli

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/rollout"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// RenderOptions controls transcript rendering.
type RenderOptions struct {
	Width            int  // wrap width; 0 disables wrapping
	Expand           bool // show collapsible commands in full
	ShowInstructions bool
	FoldedLines      int // body lines shown under a folded command; 0 means 3
}

const instructionsExcerpt = 200

var (
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	agentLabel     = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	reasoningLabel = lipgloss.NewStyle().Italic(true).Foreground(ColorTextMuted)
	commandLabel   = lipgloss.NewStyle().Bold(true).Foreground(ColorYellow)
	planLabel      = lipgloss.NewStyle().Bold(true).Foreground(ColorPurple)
	activeStep     = lipgloss.NewStyle().Bold(true).Foreground(ColorOrange)
)

// PlanIcon returns the marker for a plan step status.
func PlanIcon(s model.StepStatus) string {
	switch s {
	case model.StepCompleted:
		return "✓"
	case model.StepInProgress:
		return "→"
	default:
		return "○"
	}
}

// RenderHeader renders the session card shown above a transcript.
func RenderHeader(t model.Transcript, opts RenderOptions) string {
	width := 55
	if opts.Width > width {
		width = opts.Width
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("SESSION " + ShortID(t.SessionID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render("cwd   "), valueStyle.Render(orDash(t.WorkingDirectory)))
	fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render("tokens"), tokenStyle.Render(FormatTokens(t.TotalTokens)))
	fmt.Fprintf(&b, "%s %s", mutedStyle.Render("steps "), valueStyle.Render(FormatNumber(int64(len(t.Messages)))))

	if t.Instructions != "" {
		text := t.Instructions
		if !opts.ShowInstructions {
			text = Truncate(strings.Join(strings.Fields(text), " "), instructionsExcerpt)
		}
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render(wrap(text, width-4)))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Padding(0, 1)
	return box.Render(b.String())
}

// RenderTranscript renders the header and every message of t.
func RenderTranscript(t model.Transcript, opts RenderOptions) string {
	var b strings.Builder
	b.WriteString(RenderHeader(t, opts))
	b.WriteString("\n")

	if len(t.Messages) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  No messages in this session."))
		b.WriteString("\n")
		return b.String()
	}

	for _, m := range t.Messages {
		b.WriteString("\n")
		b.WriteString(RenderMessage(m, opts))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderMessage renders a single timeline entry.
func RenderMessage(m model.Message, opts RenderOptions) string {
	body := opts.Width - 2
	switch m.Kind {
	case model.KindUserText:
		return userLabel.Render("▌ You") + "\n" + indent.String(wrap(m.Content, body), 2)
	case model.KindAgentText:
		if m.Tone == model.ToneReasoning {
			return reasoningLabel.Render("▌ Thinking") + "\n" +
				indent.String(mutedStyle.Render(wrap(m.Content, body)), 2)
		}
		return agentLabel.Render("▌ Agent") + "\n" + indent.String(wrap(m.Content, body), 2)
	case model.KindCommand:
		return renderCommand(m, opts)
	case model.KindPlan:
		return renderPlan(m, body)
	default:
		return dimStyle.Render("▌ ["+string(m.Kind)+"]") + "\n" + indent.String(wrap(m.Content, body), 2)
	}
}

func renderCommand(m model.Message, opts RenderOptions) string {
	lines := strings.Split(m.Content, "\n")

	if m.Collapse == nil {
		return commandLabel.Render("$") + " " + valueStyle.Render(wrap(m.Content, opts.Width-2))
	}

	var b strings.Builder
	marker := "▾"
	shown := lines
	if !opts.Expand {
		marker = "▸"
		keep := opts.FoldedLines
		if keep <= 0 {
			keep = 3
		}
		if len(shown) > keep {
			shown = shown[:keep]
		}
	}
	b.WriteString(commandLabel.Render("$ " + marker + " " + m.Collapse.Label))
	b.WriteString("\n")
	b.WriteString(indent.String(dimStyle.Render(strings.Join(shown, "\n")), 2))
	if hidden := len(lines) - len(shown); hidden > 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d more lines", hidden)))
	}
	return b.String()
}

func renderPlan(m model.Message, width int) string {
	var b strings.Builder
	b.WriteString(planLabel.Render("▌ Plan"))

	highlighted := false
	for _, step := range m.Steps {
		line := PlanIcon(step.Status) + " " + step.Text
		style := valueStyle
		switch {
		case step.Status == model.StepInProgress && !highlighted:
			style = activeStep
			highlighted = true
		case step.Status == model.StepCompleted:
			style = okStyle
		case step.Status == model.StepPending:
			style = mutedStyle
		}
		b.WriteString("\n")
		b.WriteString(indent.String(style.Render(wrap(line, width)), 2))
	}
	return b.String()
}

// RenderStats renders decode diagnostics for --stats.
func RenderStats(s rollout.Stats) string {
	rows := [][]string{
		{"Lines", FormatNumber(int64(s.Lines))},
		{"Messages", FormatNumber(int64(s.Messages))},
		{"Malformed lines", FormatNumber(int64(s.MalformedLines))},
		{"Unknown record kinds", FormatNumber(int64(s.UnknownKinds))},
		{"Dropped calls", FormatNumber(int64(s.DroppedCalls))},
	}
	out := RenderTable(Table{Title: "Decode", Headers: []string{"Metric", "Count"}, Rows: rows})
	if s.MalformedLines > 0 {
		out += warnStyle.Render(fmt.Sprintf("  %d lines could not be decoded and were skipped", s.MalformedLines)) + "\n"
	}
	return out
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
