// Package cmd implements the rollview CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/theirongolddev/rollview/internal/cli"
	"github.com/theirongolddev/rollview/internal/config"
	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/pipeline"
	"github.com/theirongolddev/rollview/internal/source"
	"github.com/theirongolddev/rollview/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagSessionsDir string
	flagProject     string
	flagNoCache     bool
	flagQuiet       bool
	flagVerbose     bool

	// cfg is loaded once in PersistentPreRunE.
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "rollview",
	Short: "Agent session transcript viewer",
	Long:  "Browse the rollout logs written by a coding agent and read them as conversations.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		loaded, err := config.Load()
		if err != nil {
			slog.Warn("config unreadable, using defaults", "path", config.ConfigPath(), "err", err)
		} else {
			cfg = loaded
		}
		if !cmd.Flags().Changed("sessions-dir") {
			flagSessionsDir = cfg.SessionsDir(flagSessionsDir)
		}
		return nil
	},
	RunE:         runSessions,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSessionsDir, "sessions-dir", "d", source.DefaultSessionsDir(), "Rollout sessions directory")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "Filter to project (cwd substring match)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite session index, rescan everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging on stderr")

	sessionsFlags(rootCmd)
}

// useIndex reports whether the sqlite session index should be consulted.
func useIndex() bool {
	return !flagNoCache && cfg.Cache.Index
}

// loadSessions is the shared listing path used by all commands.
// Uses the SQLite index when available for fast subsequent runs.
func loadSessions(ctx context.Context) ([]model.SessionSummary, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning sessions...\n")
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%100 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Reading [%d/%d]", current, total)
		}
	}

	var sessions []model.SessionSummary
	loaded := false

	if useIndex() {
		idx, err := store.Open(pipeline.CachePath())
		if err != nil {
			slog.Warn("session index unavailable, doing full scan", "err", err)
		} else {
			defer func() { _ = idx.Close() }()

			ir, err := pipeline.LoadWithIndex(ctx, flagSessionsDir, idx, progressFn)
			if err != nil {
				slog.Warn("session index error, falling back to full scan", "err", err)
			} else {
				if !flagQuiet && ir.TotalFiles > 0 {
					if ir.Reindexed == 0 {
						fmt.Fprintf(os.Stderr, "\r  Loaded %s sessions from index (%d projects)    \n",
							cli.FormatNumber(int64(len(ir.Sessions))), ir.ProjectCount)
					} else {
						fmt.Fprintf(os.Stderr, "\r  %s indexed + %d rescanned (%d projects)    \n",
							cli.FormatNumber(int64(ir.CacheHits)), ir.Reindexed, ir.ProjectCount)
					}
				}
				sessions, loaded = ir.Sessions, true
			}
		}
	}

	if !loaded {
		result, err := pipeline.Load(ctx, flagSessionsDir, progressFn)
		if err != nil {
			return nil, err
		}
		if !flagQuiet && result.TotalFiles > 0 {
			fmt.Fprintf(os.Stderr, "\r  Read %s sessions across %d projects    \n",
				cli.FormatNumber(int64(result.SummarizedFiles)), result.ProjectCount)
		}
		sessions = result.Sessions
	}

	return pipeline.FilterByProject(pipeline.HideTrivial(sessions), flagProject), nil
}
