package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/theirongolddev/rollview/internal/cli"
	"github.com/theirongolddev/rollview/internal/daemon"
	"github.com/theirongolddev/rollview/internal/loader"
	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/rollout"
	"github.com/theirongolddev/rollview/internal/source"

	"github.com/spf13/cobra"
)

var (
	flagShowJSON         bool
	flagShowStats        bool
	flagShowWrap         int
	flagShowExpand       bool
	flagShowInstructions bool
	flagShowServer       string
	flagShowReload       bool
)

var showCmd = &cobra.Command{
	Use:   "show <session-id|path>",
	Short: "Render one session transcript",
	Long: "Render one session transcript. The argument is a session id, an " +
		"unambiguous id prefix, or the path of a rollout file.",
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&flagShowJSON, "json", false, "Emit the transcript as JSON")
	showCmd.Flags().BoolVar(&flagShowStats, "stats", false, "Print decode diagnostics after the transcript")
	showCmd.Flags().IntVar(&flagShowWrap, "wrap", 100, "Wrap width (0 disables wrapping)")
	showCmd.Flags().BoolVar(&flagShowExpand, "expand", false, "Show collapsible commands in full")
	showCmd.Flags().BoolVar(&flagShowInstructions, "instructions", false, "Show the full session instructions")
	showCmd.Flags().StringVar(&flagShowServer, "server", "", "Fetch from a running `rollview serve` at this address")
	showCmd.Flags().BoolVar(&flagShowReload, "reload", false, "With --server, bypass the server's transcript cache")
	rootCmd.AddCommand(showCmd)
}

func runShow(c *cobra.Command, args []string) error {
	var (
		tr    model.Transcript
		stats *rollout.Stats
	)
	if flagShowServer != "" {
		remote, err := daemon.NewClient(flagShowServer).Transcript(c.Context(), args[0], flagShowReload)
		if err != nil {
			return err
		}
		tr = remote
	} else {
		df, err := source.FindSession(flagSessionsDir, args[0])
		if err != nil {
			return err
		}

		coord := loader.New(loader.NewMapCache(), loader.WithLogger(slog.Default()))
		local, err := coord.Load(c.Context(), loader.Request{
			SessionID: df.SessionID,
			Open:      source.FileOpener(df.Path),
		})
		snap := coord.Snapshot()
		if err != nil {
			slog.Debug("load failed", "path", df.Path, "err", err)
			return errors.New(snap.Message)
		}
		tr, stats = local, &snap.Stats
	}

	if flagShowJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tr)
	}

	fmt.Println()
	fmt.Print(cli.RenderTranscript(tr, cli.RenderOptions{
		Width:            flagShowWrap,
		Expand:           flagShowExpand,
		ShowInstructions: flagShowInstructions,
	}))

	if flagShowStats {
		fmt.Println()
		if stats == nil {
			fmt.Println("  Decode diagnostics are only available for local sessions.")
		} else {
			fmt.Print(cli.RenderStats(*stats))
		}
	}
	return nil
}
