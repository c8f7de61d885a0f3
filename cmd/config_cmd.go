package cmd

import (
	"fmt"

	"github.com/theirongolddev/rollview/internal/config"
	"github.com/theirongolddev/rollview/internal/pipeline"
	"github.com/theirongolddev/rollview/internal/source"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Sessions directory: %s\n", flagSessionsDir)
	if cfg.General.SessionsDir == "" {
		fmt.Printf("                        (default %s)\n", source.DefaultSessionsDir())
	}
	fmt.Printf("    Default limit:      %d\n", cfg.General.DefaultLimit)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Transcripts: %d (LRU capacity)\n", cfg.Cache.Transcripts)
	fmt.Printf("    Index:       %v\n", cfg.Cache.Index)
	fmt.Printf("    Index file:  %s\n", pipeline.CachePath())
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Wrap: %v\n", cfg.TUI.Wrap)
	fmt.Println()

	fmt.Println("  [Serve]")
	fmt.Printf("    Address: %s\n", cfg.Serve.Addr)
	fmt.Println()

	fmt.Println("  Run `rollview setup` to reconfigure.")
	return nil
}
