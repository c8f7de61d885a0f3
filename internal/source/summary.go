// Package source discovers rollout session files and exposes their lines.
package source

import (
	"bytes"
	"strings"

	"github.com/theirongolddev/rollview/internal/model"

	"github.com/tidwall/gjson"
)

// previewRunes is the listing preview length.
const previewRunes = 50

// SummaryResult holds the output of summarizing a single rollout file.
type SummaryResult struct {
	Summary     model.SessionSummary
	ParseErrors int
	Err         error
}

// Summarize reads a rollout file once and extracts listing information:
// the working directory from the first record, the first user prompt as a
// preview, and the number of non-blank lines.
//
// Only the first record is consulted for the working directory; the agent
// always opens a rollout with its session_meta.
func Summarize(df DiscoveredFile) SummaryResult {
	lines, err := OpenFile(df.Path)
	if err != nil {
		return SummaryResult{Err: err}
	}
	defer func() { _ = lines.Close() }()

	s := model.SessionSummary{
		SessionID: df.SessionID,
		Path:      df.Path,
		StartedAt: df.StartedAt,
		SizeBytes: df.SizeBytes,
		ModTime:   df.ModTime,
	}
	var parseErrors int

	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		s.Lines++

		if !gjson.ValidBytes(line) {
			parseErrors++
			continue
		}
		rec := gjson.ParseBytes(line)

		if s.Lines == 1 {
			s.CWD = rec.Get("payload.cwd").String()
		}
		if s.Preview == "" {
			s.Preview = previewFrom(rec)
		}
	}

	if err := lines.Err(); err != nil {
		return SummaryResult{Err: err}
	}
	s.Lines += lines.Oversized()
	parseErrors += lines.Oversized()

	return SummaryResult{Summary: s, ParseErrors: parseErrors}
}

// previewFrom returns the user prompt carried by rec, if any.
func previewFrom(rec gjson.Result) string {
	payload := rec.Get("payload")
	switch rec.Get("type").String() {
	case "event_msg":
		if payload.Get("type").String() != "user_message" {
			return ""
		}
		return Preview(firstString(payload, "message", "text"))
	case "response_item":
		if payload.Get("type").String() != "message" || payload.Get("role").String() != "user" {
			return ""
		}
		for _, block := range payload.Get("content").Array() {
			text := strings.TrimSpace(block.Get("text").String())
			// Injected context blocks (<environment_context>, <user_instructions>)
			// are not prompts.
			if text == "" || strings.HasPrefix(text, "<") {
				continue
			}
			return Preview(text)
		}
	}
	return ""
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return ""
}

// Preview collapses whitespace and truncates s to the listing preview length.
func Preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes])
}
