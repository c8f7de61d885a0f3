package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSession creates a temp rollout file and returns a DiscoveredFile for it.
func writeSession(t *testing.T, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rollout-2025-09-26T03-33-26-0199845e-2f4c-7c31-9b3d-2c5d8e1a7f00.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{
		Path:      path,
		SessionID: SessionIDFromPath(path),
		StartedAt: StartTimeFromPath(path),
	}
}

func TestSummarize_ProjectAndPreview(t *testing.T) {
	df := writeSession(t,
		`{"type":"session_meta","payload":{"cwd":"/work/api","instructions":"be brief"}}`,
		`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"<environment_context>\n  <cwd>/work/api</cwd>\n</environment_context>"}]}}`,
		`{"type":"event_msg","payload":{"type":"user_message","message":"  Fix the   flaky\nretry test in the http client please, it fails on CI  "}}`,
		`{"type":"event_msg","payload":{"type":"agent_message","message":"ok"}}`,
	)

	result := Summarize(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}

	s := result.Summary
	if s.CWD != "/work/api" {
		t.Errorf("CWD = %q, want /work/api", s.CWD)
	}
	want := "Fix the flaky retry test in the http client please"
	if s.Preview != want {
		t.Errorf("Preview = %q, want %q", s.Preview, want)
	}
	if s.Lines != 4 {
		t.Errorf("Lines = %d, want 4", s.Lines)
	}
	if s.Trivial() {
		t.Error("4-line session reported as trivial")
	}
	if s.SessionID != "0199845e-2f4c-7c31-9b3d-2c5d8e1a7f00" {
		t.Errorf("SessionID = %q", s.SessionID)
	}
}

func TestSummarize_ResponseItemPreview(t *testing.T) {
	df := writeSession(t,
		`{"type":"session_meta","payload":{"cwd":"/w"}}`,
		`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"<user_instructions>x</user_instructions>"},{"type":"input_text","text":"add a README"}]}}`,
	)

	result := Summarize(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Summary.Preview != "add a README" {
		t.Errorf("Preview = %q, want %q", result.Summary.Preview, "add a README")
	}
	if !result.Summary.Trivial() {
		t.Error("2-line session should be trivial")
	}
}

func TestSummarize_OnlyFirstLineSetsCWD(t *testing.T) {
	df := writeSession(t,
		`{"type":"event_msg","payload":{"type":"user_message","message":"hi"}}`,
		`{"type":"session_meta","payload":{"cwd":"/late"}}`,
	)

	result := Summarize(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Summary.CWD != "" {
		t.Errorf("CWD = %q, want empty", result.Summary.CWD)
	}
}

func TestSummarize_MalformedLines(t *testing.T) {
	df := writeSession(t,
		`{"type":"session_meta","payload":{"cwd":"/w"}}`,
		`not json`,
		``,
		`{"type":"event_msg","payload":{"type":"user_message","text":"from text key"}}`,
	)

	result := Summarize(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", result.ParseErrors)
	}
	if result.Summary.Lines != 3 {
		t.Errorf("Lines = %d, want 3 (blank lines skipped)", result.Summary.Lines)
	}
	if result.Summary.Preview != "from text key" {
		t.Errorf("Preview = %q", result.Summary.Preview)
	}
}

func TestSummarize_Missing(t *testing.T) {
	result := Summarize(DiscoveredFile{Path: filepath.Join(t.TempDir(), "nope.jsonl")})
	if result.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short", "hello", "hello"},
		{"whitespace", "  a\n\tb   c ", "a b c"},
		{"truncated", strings.Repeat("x", 80), strings.Repeat("x", 50)},
		{"runes", strings.Repeat("é", 60), strings.Repeat("é", 50)},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.input); got != tt.want {
				t.Errorf("Preview(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
