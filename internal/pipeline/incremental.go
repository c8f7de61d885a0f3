package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/source"
	"github.com/theirongolddev/rollview/internal/store"
)

// IndexedLoadResult extends LoadResult with index metadata.
type IndexedLoadResult struct {
	LoadResult
	CacheHits int
	Reindexed int
	Removed   int
}

// LoadWithIndex discovers rollout files, diffs them against idx, summarizes
// only new or changed files and drops entries whose files disappeared.
func LoadWithIndex(ctx context.Context, sessionsDir string, idx *store.Index, progressFn ProgressFunc) (*IndexedLoadResult, error) {
	files, err := source.ScanDir(sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", sessionsDir, err)
	}

	result := &IndexedLoadResult{
		LoadResult: LoadResult{TotalFiles: len(files)},
	}

	tracked, err := idx.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toSummarize []source.DiscoveredFile
	unchanged := make(map[string]struct{})
	seen := make(map[string]struct{}, len(files))

	for _, f := range files {
		seen[f.Path] = struct{}{}
		info, ok := tracked[f.Path]
		if ok && info.MtimeNs == f.ModTime.UnixNano() && info.SizeBytes == f.SizeBytes {
			unchanged[f.Path] = struct{}{}
		} else {
			toSummarize = append(toSummarize, f)
		}
	}

	for path := range tracked {
		if _, ok := seen[path]; ok {
			continue
		}
		if err := idx.DeleteSession(path); err != nil {
			return nil, fmt.Errorf("pruning index: %w", err)
		}
		result.Removed++
	}

	result.CacheHits = len(unchanged)
	result.Reindexed = len(toSummarize)

	byPath := make(map[string]model.SessionSummary, len(files))

	if len(unchanged) > 0 {
		cached, err := idx.LoadAllSessions()
		if err != nil {
			return nil, fmt.Errorf("loading indexed sessions: %w", err)
		}
		for _, s := range cached {
			if _, ok := unchanged[s.Path]; ok {
				byPath[s.Path] = s
				result.SummarizedFiles++
			}
		}
	}

	if len(toSummarize) > 0 {
		results, err := summarizeAll(ctx, toSummarize, func(n int) {
			if progressFn != nil {
				progressFn(n+result.CacheHits, result.TotalFiles)
			}
		})
		if err != nil {
			return nil, err
		}

		fresh := make([]model.SessionSummary, 0, len(results))
		for _, sr := range results {
			if sr.Err != nil {
				result.FileErrors++
				continue
			}
			result.SummarizedFiles++
			result.ParseErrors += sr.ParseErrors
			byPath[sr.Summary.Path] = sr.Summary
			fresh = append(fresh, sr.Summary)
		}
		if err := idx.SaveSessions(fresh); err != nil {
			return nil, fmt.Errorf("updating index: %w", err)
		}
	}

	// Emit in scan order so listings stay newest first.
	for _, f := range files {
		if s, ok := byPath[f.Path]; ok {
			result.Sessions = append(result.Sessions, s)
		}
	}
	result.ProjectCount = countProjects(result.Sessions)

	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "rollview")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "rollview")
}

// CachePath returns the full path to the session index database.
func CachePath() string {
	return filepath.Join(CacheDir(), "sessions.db")
}
