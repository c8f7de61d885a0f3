package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/rollview/internal/model"
)

func openIndex(t *testing.T) *Index {
	t.Helper()
	x, err := Open(filepath.Join(t.TempDir(), "nested", "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func TestIndex_SaveAndLoad(t *testing.T) {
	x := openIndex(t)

	started := time.Date(2025, 9, 26, 3, 33, 26, 0, time.Local)
	mtime := time.Date(2025, 9, 26, 4, 0, 0, 123, time.UTC)
	in := model.SessionSummary{
		SessionID: "abc",
		Path:      "/s/rollout-abc.jsonl",
		CWD:       "/work/api",
		Preview:   "fix the tests",
		StartedAt: started,
		Lines:     12,
		SizeBytes: 4096,
		ModTime:   mtime,
	}
	if err := x.SaveSession(in); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := x.LoadAllSessions()
	if err != nil {
		t.Fatalf("LoadAllSessions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	s := got[0]
	if s.SessionID != in.SessionID || s.CWD != in.CWD || s.Preview != in.Preview || s.Lines != in.Lines {
		t.Errorf("got %+v, want %+v", s, in)
	}
	if !s.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", s.StartedAt, started)
	}
	if s.ModTime.UnixNano() != mtime.UnixNano() {
		t.Errorf("ModTime = %v, want %v", s.ModTime, mtime)
	}

	tracked, err := x.GetTrackedFiles()
	if err != nil {
		t.Fatal(err)
	}
	fi, ok := tracked[in.Path]
	if !ok {
		t.Fatal("file not tracked")
	}
	if fi.MtimeNs != mtime.UnixNano() || fi.SizeBytes != 4096 {
		t.Errorf("tracked = %+v", fi)
	}
}

func TestIndex_ReplaceAndDelete(t *testing.T) {
	x := openIndex(t)

	a := model.SessionSummary{SessionID: "a", Path: "/s/a.jsonl", Preview: "old"}
	b := model.SessionSummary{SessionID: "b", Path: "/s/b.jsonl"}
	if err := x.SaveSessions([]model.SessionSummary{a, b}); err != nil {
		t.Fatalf("SaveSessions: %v", err)
	}

	a.Preview = "new"
	if err := x.SaveSession(a); err != nil {
		t.Fatal(err)
	}
	if n, _ := x.SessionCount(); n != 2 {
		t.Errorf("SessionCount = %d, want 2", n)
	}

	if err := x.DeleteSession(b.Path); err != nil {
		t.Fatal(err)
	}
	got, err := x.LoadAllSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Preview != "new" {
		t.Errorf("sessions = %+v, want only a with new preview", got)
	}
	if !got[0].StartedAt.IsZero() {
		t.Errorf("StartedAt = %v, want zero", got[0].StartedAt)
	}
}
