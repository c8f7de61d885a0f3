package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/rollview/internal/config"
	"github.com/theirongolddev/rollview/internal/source"
	"github.com/theirongolddev/rollview/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers of the first-run wizard.
type SetupValues struct {
	SessionsDir string
	Theme       string
	Limit       int
	Wrap        bool
}

// SetupValuesFrom seeds wizard answers from cfg.
func SetupValuesFrom(cfg config.Config, sessionsDir string) SetupValues {
	return SetupValues{
		SessionsDir: cfg.SessionsDir(sessionsDir),
		Theme:       cfg.Appearance.Theme,
		Limit:       cfg.General.DefaultLimit,
		Wrap:        cfg.TUI.Wrap,
	}
}

// Apply copies the answers into cfg. A sessions directory equal to
// defaultDir is left unset so the default keeps tracking the home dir.
func (v SetupValues) Apply(cfg *config.Config, defaultDir string) {
	dir := strings.TrimSpace(v.SessionsDir)
	if dir == defaultDir {
		dir = ""
	}
	cfg.General.SessionsDir = dir
	if theme.Known(v.Theme) {
		cfg.Appearance.Theme = v.Theme
	}
	if v.Limit > 0 {
		cfg.General.DefaultLimit = v.Limit
	}
	cfg.TUI.Wrap = v.Wrap
}

// NewSetupForm builds the first-run wizard. Answers are written to vals.
func NewSetupForm(sessionCount int, sessionsDir string, vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Label, t.Name))
	}

	intro := "No rollout files found yet."
	if sessionCount > 0 {
		intro = fmt.Sprintf("Found %d sessions in %s.", sessionCount, sessionsDir)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to rollview").
				Description(intro+"\nA few preferences and you're set."),
			huh.NewInput().
				Title("Sessions directory").
				Description("Where the agent writes its rollout-*.jsonl logs.").
				Value(&vals.SessionsDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("sessions directory is required")
					}
					return nil
				}),
			huh.NewSelect[int]().
				Title("Sessions shown by `rollview sessions`").
				Options(
					huh.NewOption("10", 10),
					huh.NewOption("20", 20),
					huh.NewOption("50", 50),
					huh.NewOption("100", 100),
				).
				Value(&vals.Limit),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
			huh.NewConfirm().
				Title("Wrap long transcript lines?").
				Affirmative("Yes").
				Negative("No").
				Value(&vals.Wrap),
		),
	).WithShowHelp(true)
}

// saveSetupConfig persists the wizard answers.
func (a *App) saveSetupConfig() error {
	cfg := a.cfg
	a.setupVals.Apply(&cfg, source.DefaultSessionsDir())
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	return config.Save(cfg)
}
