package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/rollview/internal/cli"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions, newest first",
	RunE:  runSessions,
}

var sessionsLimit int

func init() {
	sessionsFlags(sessionsCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func sessionsFlags(c *cobra.Command) {
	c.Flags().IntVarP(&sessionsLimit, "limit", "l", 0, "Number of sessions to show (default general.default_limit, 0 = all)")
}

func runSessions(c *cobra.Command, _ []string) error {
	sessions, err := loadSessions(c.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Printf("\n  No sessions found in %s.\n", flagSessionsDir)
		return nil
	}

	total := len(sessions)
	limit := cfg.General.DefaultLimit
	if c.Flags().Changed("limit") {
		limit = sessionsLimit
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	title := fmt.Sprintf("SESSIONS  showing %d of %d", len(sessions), total)
	if flagProject != "" {
		title += "  project~" + flagProject
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	home, _ := os.UserHomeDir()
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			cli.FormatStart(s.StartedAt),
			cli.ShortID(s.SessionID),
			cli.Truncate(cli.ShortenPath(s.CWD, home), 28),
			cli.Truncate(s.Preview, 50),
			cli.FormatBytes(s.SizeBytes),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Start", "ID", "Project", "Preview", "Size"},
		Rows:     rows,
		LeftCols: 4,
	}))

	return nil
}
