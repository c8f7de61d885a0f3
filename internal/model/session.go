// Package model defines domain types for rollview sessions and transcripts.
package model

import "time"

// SessionSummary holds lightweight listing information for one rollout file.
type SessionSummary struct {
	SessionID string
	Path      string
	CWD       string
	Preview   string // first user prompt, truncated
	StartedAt time.Time
	Lines     int
	SizeBytes int64
	ModTime   time.Time
}

// Trivial reports whether the session is too short to be worth listing.
// The agent writes a meta line plus a couple of context records before the
// first prompt, so anything under four lines never reached a conversation.
func (s SessionSummary) Trivial() bool {
	return s.Lines < 4
}

// ProjectStats groups sessions by working directory.
type ProjectStats struct {
	CWD          string
	Sessions     int
	LastActivity time.Time
}
