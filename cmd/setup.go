package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/rollview/internal/config"
	"github.com/theirongolddev/rollview/internal/source"
	"github.com/theirongolddev/rollview/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	files, _ := source.ScanDir(flagSessionsDir)

	vals := tui.SetupValuesFrom(cfg, flagSessionsDir)
	form := tui.NewSetupForm(len(files), flagSessionsDir, &vals)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	vals.Apply(&cfg, source.DefaultSessionsDir())
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `rollview setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
