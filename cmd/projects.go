package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/rollview/internal/cli"
	"github.com/theirongolddev/rollview/internal/pipeline"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Working directories ranked by recent activity",
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(c *cobra.Command, _ []string) error {
	sessions, err := loadSessions(c.Context())
	if err != nil {
		return err
	}
	projects := pipeline.Projects(sessions)
	if len(projects) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTS  %d directories", len(projects))))
	fmt.Println()

	home, _ := os.UserHomeDir()
	rows := make([][]string, 0, len(projects))
	for _, ps := range projects {
		dir := cli.ShortenPath(ps.CWD, home)
		if dir == "" {
			dir = "(unknown)"
		}
		rows = append(rows, []string{
			cli.Truncate(dir, 48),
			cli.FormatNumber(int64(ps.Sessions)),
			cli.FormatAge(ps.LastActivity),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "Sessions", "Last active"},
		Rows:    rows,
	}))

	return nil
}
