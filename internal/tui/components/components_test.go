package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{10, 3, []int{4, 3, 3}},
		{9, 3, []int{3, 3, 3}},
		{5, 0, nil},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("LayoutRow(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("LayoutRow(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
				break
			}
		}
	}
}

func TestCardRowHeight(t *testing.T) {
	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	if got := len(strings.Split(joined, "\n")); got != tallLines {
		t.Errorf("joined height = %d, want %d", got, tallLines)
	}
	if w := lipgloss.Width(joined); w != 44 {
		t.Errorf("joined width = %d, want 44", w)
	}
}

func TestRenderStatusBar(t *testing.T) {
	bar := RenderStatusBar(80, "Loading…", StatusBusy, "12 sessions")
	if w := lipgloss.Width(bar); w != 80 {
		t.Errorf("width = %d, want 80", w)
	}
	for _, want := range []string{"[?]help", "Loading…", "12 sessions"} {
		if !strings.Contains(bar, want) {
			t.Errorf("status bar missing %q: %q", want, bar)
		}
	}
}

func TestStatLine(t *testing.T) {
	line := StatLine([]Stat{{"tokens", "1.2K"}, {"steps", "9"}}, 40)
	if !strings.Contains(line, "1.2K") || !strings.Contains(line, "steps") {
		t.Errorf("unexpected stat line %q", line)
	}
	if StatLine(nil, 40) != "" {
		t.Error("empty stats should render nothing")
	}
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(0.5, 10)
	if !strings.Contains(bar, "50%") {
		t.Errorf("missing percentage: %q", bar)
	}
	if strings.Count(bar, "█") != 5 {
		t.Errorf("filled cells = %d, want 5", strings.Count(bar, "█"))
	}
	if over := ProgressBar(2, 10); !strings.Contains(over, "100%") {
		t.Errorf("clamped bar = %q", over)
	}
}
