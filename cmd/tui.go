package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/theirongolddev/rollview/internal/config"
	"github.com/theirongolddev/rollview/internal/pipeline"
	"github.com/theirongolddev/rollview/internal/tui"
	"github.com/theirongolddev/rollview/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive session browser",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(cfg.Appearance.Theme)

	// stderr belongs to the alt screen; debug logs go to a file instead.
	closeLog := redirectTUILog()
	defer closeLog()

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		SessionsDir: flagSessionsDir,
		Project:     flagProject,
		UseIndex:    useIndex(),
		Config:      cfg,
		NeedSetup:   !config.Exists(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

func redirectTUILog() func() {
	if !flagVerbose {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() {}
	}
	path := filepath.Join(pipeline.CacheDir(), "tui.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() {}
	}
	//nolint:gosec // log path lives under the user's cache dir
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() {}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return func() { _ = f.Close() }
}
