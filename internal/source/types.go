package source

import "time"

// LineSource yields the raw lines of one session log in file order.
//
// Next returns the next line and true, or nil and false once the source is
// exhausted or has failed; Err then reports the failure, if any. The returned
// slice is only valid until the following call to Next.
type LineSource interface {
	Next() ([]byte, bool)
	Err() error
	Close() error
}

// OversizeCounter is implemented by sources that drop lines longer than
// their limit instead of failing. Oversized reports how many were dropped.
type OversizeCounter interface {
	Oversized() int
}

// Opener resolves a fresh LineSource for one load attempt.
type Opener func() (LineSource, error)

// DiscoveredFile represents a rollout file found during directory scanning.
type DiscoveredFile struct {
	Path      string
	SessionID string    // trailing UUID of the file stem, or the stem itself
	StartedAt time.Time // parsed from the file name; zero when absent
	SizeBytes int64
	ModTime   time.Time
}
