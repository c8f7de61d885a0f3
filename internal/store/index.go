// Package store provides a SQLite-backed index of summarized sessions.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/rollview/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Index persists session summaries so unchanged rollout files are not
// re-read on every listing.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at the given path.
func Open(dbPath string) (*Index, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the index database.
func (x *Index) Close() error {
	return x.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of path -> FileInfo for all indexed files.
func (x *Index) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := x.db.Query("SELECT path, mtime_ns, size FROM sessions")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveSession stores a session summary together with the file state it was
// computed from.
func (x *Index) SaveSession(s model.SessionSummary) error {
	now := time.Now().UTC().Format(time.RFC3339)
	startedAt := ""
	if !s.StartedAt.IsZero() {
		startedAt = s.StartedAt.UTC().Format(time.RFC3339)
	}

	_, err := x.db.Exec(`INSERT OR REPLACE INTO sessions
		(path, session_id, cwd, preview, started_at, lines, mtime_ns, size, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Path, s.SessionID, s.CWD, s.Preview, startedAt, s.Lines,
		s.ModTime.UnixNano(), s.SizeBytes, now,
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", s.SessionID, err)
	}
	return nil
}

// SaveSessions stores many summaries in one transaction.
func (x *Index) SaveSessions(sessions []model.SessionSummary) error {
	tx, err := x.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO sessions
		(path, session_id, cwd, preview, started_at, lines, mtime_ns, size, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, s := range sessions {
		startedAt := ""
		if !s.StartedAt.IsZero() {
			startedAt = s.StartedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.Exec(s.Path, s.SessionID, s.CWD, s.Preview, startedAt, s.Lines,
			s.ModTime.UnixNano(), s.SizeBytes, now); err != nil {
			return fmt.Errorf("saving session %s: %w", s.SessionID, err)
		}
	}

	return tx.Commit()
}

// LoadAllSessions reads all indexed sessions.
func (x *Index) LoadAllSessions() ([]model.SessionSummary, error) {
	rows, err := x.db.Query(`SELECT
		path, session_id, cwd, preview, started_at, lines, mtime_ns, size
		FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.SessionSummary
	for rows.Next() {
		var s model.SessionSummary
		var cwd, preview, startedAt sql.NullString
		var mtimeNs int64

		if err := rows.Scan(&s.Path, &s.SessionID, &cwd, &preview, &startedAt,
			&s.Lines, &mtimeNs, &s.SizeBytes); err != nil {
			return nil, err
		}

		s.CWD = cwd.String
		s.Preview = preview.String
		if startedAt.Valid && startedAt.String != "" {
			if ts, err := time.Parse(time.RFC3339, startedAt.String); err == nil {
				s.StartedAt = ts.Local()
			}
		}
		s.ModTime = time.Unix(0, mtimeNs)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteSession removes the entry for a rollout file.
func (x *Index) DeleteSession(path string) error {
	_, err := x.db.Exec("DELETE FROM sessions WHERE path = ?", path)
	return err
}

// SessionCount returns the number of indexed sessions.
func (x *Index) SessionCount() (int, error) {
	var count int
	err := x.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}
