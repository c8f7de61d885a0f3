package pipeline

import (
	"context"
	"os"
	"testing"

	"github.com/theirongolddev/rollview/internal/rollout"
	"github.com/theirongolddev/rollview/internal/source"
	"github.com/theirongolddev/rollview/internal/store"
)

func BenchmarkLoad(b *testing.B) {
	dir := source.DefaultSessionsDir()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := Load(context.Background(), dir, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkParseFile(b *testing.B) {
	files, err := source.ScanDir(source.DefaultSessionsDir())
	if err != nil {
		b.Fatal(err)
	}
	if len(files) == 0 {
		b.Skip("no rollout files")
	}

	// Find the largest file for worst-case benchmarking
	var biggest source.DiscoveredFile
	for _, f := range files {
		if f.SizeBytes > biggest.SizeBytes {
			biggest = f
		}
	}

	b.Logf("Benchmarking largest file: %s (%.1f KB)", biggest.Path, float64(biggest.SizeBytes)/1024)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, _, err := rollout.ParseFile(context.Background(), biggest.Path); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoadWithIndex(b *testing.B) {
	idx, err := store.Open(CachePath())
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = idx.Close() }()
	dir := source.DefaultSessionsDir()
	if _, err := os.Stat(dir); err != nil {
		b.Skip("no sessions directory")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadWithIndex(context.Background(), dir, idx, nil); err != nil {
			b.Fatal(err)
		}
	}
}
