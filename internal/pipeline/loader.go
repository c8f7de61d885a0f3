// Package pipeline discovers rollout files and summarizes them for listings,
// optionally through the sqlite session index.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/source"

	"golang.org/x/sync/errgroup"
)

// LoadResult holds the output of the summary pipeline.
type LoadResult struct {
	Sessions        []model.SessionSummary // newest first
	TotalFiles      int
	SummarizedFiles int
	ParseErrors     int
	FileErrors      int
	ProjectCount    int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and summarizes every rollout file under sessionsDir.
func Load(ctx context.Context, sessionsDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", sessionsDir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	results, err := summarizeAll(ctx, files, func(n int) {
		if progressFn != nil {
			progressFn(n, len(files))
		}
	})
	if err != nil {
		return nil, err
	}

	for _, sr := range results {
		if sr.Err != nil {
			result.FileErrors++
			continue
		}
		result.SummarizedFiles++
		result.ParseErrors += sr.ParseErrors
		result.Sessions = append(result.Sessions, sr.Summary)
	}
	result.ProjectCount = countProjects(result.Sessions)

	return result, nil
}

// summarizeAll summarizes files on a bounded worker pool. Results keep the
// order of files. Per-file failures are reported in the results; only
// cancellation aborts the run.
func summarizeAll(ctx context.Context, files []source.DiscoveredFile, progress func(done int)) ([]source.SummaryResult, error) {
	results := make([]source.SummaryResult, len(files))
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(files)))

	for i := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = source.Summarize(files[i])
			n := processed.Add(1)
			if progress != nil {
				progress(int(n))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func workerCount(jobs int) int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 4
	}
	if n > jobs {
		n = jobs
	}
	return n
}
