package source

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// stampRe matches the local start time embedded in rollout file names:
// rollout-2025-09-26T03-33-26-<uuid>.jsonl
var stampRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2})`)

const stampLayout = "2006-01-02T15-04-05"

// DefaultSessionsDir returns ~/.codex/sessions.
func DefaultSessionsDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codex", "sessions")
}

// ScanDir walks sessionsDir and discovers all rollout JSONL files, newest
// first. A missing directory yields no files and no error.
func ScanDir(sessionsDir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(sessionsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}

		df := DiscoveredFile{
			Path:      path,
			SessionID: SessionIDFromPath(path),
			StartedAt: StartTimeFromPath(path),
		}
		if fi, err := d.Info(); err == nil {
			df.SizeBytes = fi.Size()
			df.ModTime = fi.ModTime()
		}

		files = append(files, df)
		return nil
	})

	SortNewestFirst(files)
	return files, err
}

// SessionIDFromPath extracts the session UUID from a rollout file name.
// Files that don't end in a UUID fall back to their bare stem.
func SessionIDFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	const uuidLen = 36
	if len(stem) >= uuidLen {
		if id, err := uuid.Parse(stem[len(stem)-uuidLen:]); err == nil {
			return id.String()
		}
	}
	return stem
}

// StartTimeFromPath parses the start stamp from a rollout file name.
func StartTimeFromPath(path string) time.Time {
	m := stampRe.FindString(filepath.Base(path))
	if m == "" {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(stampLayout, m, time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// SortNewestFirst orders files by start stamp descending. Undated files go
// last; ties are broken by path.
func SortNewestFirst(files []DiscoveredFile) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].StartedAt, files[j].StartedAt
		switch {
		case !a.IsZero() && !b.IsZero():
			if !a.Equal(b) {
				return a.After(b)
			}
		case !a.IsZero():
			return true
		case !b.IsZero():
			return false
		}
		return files[i].Path < files[j].Path
	})
}

// FindSession resolves a session by id among files. An argument that names
// an existing file is returned as-is.
func FindSession(sessionsDir, idOrPath string) (DiscoveredFile, error) {
	if idOrPath == "" {
		return DiscoveredFile{}, fmt.Errorf("%w: empty session id", ErrNotFound)
	}
	if fi, err := os.Stat(idOrPath); err == nil && !fi.IsDir() {
		return DiscoveredFile{
			Path:      idOrPath,
			SessionID: SessionIDFromPath(idOrPath),
			StartedAt: StartTimeFromPath(idOrPath),
			SizeBytes: fi.Size(),
			ModTime:   fi.ModTime(),
		}, nil
	}

	files, err := ScanDir(sessionsDir)
	if err != nil {
		return DiscoveredFile{}, err
	}
	for _, f := range files {
		if f.SessionID == idOrPath {
			return f, nil
		}
	}
	// Allow unambiguous prefixes, as with git object names.
	var match *DiscoveredFile
	for i := range files {
		if strings.HasPrefix(files[i].SessionID, idOrPath) {
			if match != nil {
				return DiscoveredFile{}, fmt.Errorf("session id %q is ambiguous", idOrPath)
			}
			match = &files[i]
		}
	}
	if match == nil {
		return DiscoveredFile{}, fmt.Errorf("%w: %s", ErrNotFound, idOrPath)
	}
	return *match, nil
}
