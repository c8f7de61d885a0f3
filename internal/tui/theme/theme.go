// Package theme defines color themes for the rollview terminal browser.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps the browser's roles to colors. Chrome roles style panes and
// the status bar; transcript roles tell the speakers and plan states apart.
type Theme struct {
	Name  string
	Label string // display name for pickers

	// Chrome
	Background   lipgloss.Color
	Surface      lipgloss.Color // cards, status bar
	SurfaceHover lipgloss.Color // selected list row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused pane
	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color
	KeyHint      lipgloss.Color // key names in help and hints
	Error        lipgloss.Color

	// Transcript
	User       lipgloss.Color
	Agent      lipgloss.Color
	Command    lipgloss.Color // "$" prompt and patch labels
	Meta       lipgloss.Color // instructions and plan headings
	StepActive lipgloss.Color // first in-progress plan step
	StepDone   lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default: warm ink on paper-dark surfaces.
var FlexokiDark = Theme{
	Name:  "flexoki-dark",
	Label: "Flexoki Dark",

	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	KeyHint:      lipgloss.Color("#24837B"),
	Error:        lipgloss.Color("#D14D41"),

	User:       lipgloss.Color("#3AA99F"),
	Agent:      lipgloss.Color("#4385BE"),
	Command:    lipgloss.Color("#D0A215"),
	Meta:       lipgloss.Color("#CE5D97"),
	StepActive: lipgloss.Color("#DA702C"),
	StepDone:   lipgloss.Color("#879A39"),
}

// CatppuccinMocha uses soft pastels.
var CatppuccinMocha = Theme{
	Name:  "catppuccin-mocha",
	Label: "Catppuccin Mocha",

	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	SurfaceHover: lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	KeyHint:      lipgloss.Color("#94E2D5"),
	Error:        lipgloss.Color("#F38BA8"),

	User:       lipgloss.Color("#94E2D5"),
	Agent:      lipgloss.Color("#89B4FA"),
	Command:    lipgloss.Color("#F9E2AF"),
	Meta:       lipgloss.Color("#CBA6F7"),
	StepActive: lipgloss.Color("#FAB387"),
	StepDone:   lipgloss.Color("#A6E3A1"),
}

// TokyoNight is a cool blue and violet theme.
var TokyoNight = Theme{
	Name:  "tokyo-night",
	Label: "Tokyo Night",

	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	KeyHint:      lipgloss.Color("#7DCFFF"),
	Error:        lipgloss.Color("#F7768E"),

	User:       lipgloss.Color("#7DCFFF"),
	Agent:      lipgloss.Color("#7AA2F7"),
	Command:    lipgloss.Color("#E0AF68"),
	Meta:       lipgloss.Color("#BB9AF7"),
	StepActive: lipgloss.Color("#FF9E64"),
	StepDone:   lipgloss.Color("#9ECE6A"),
}

// Terminal sticks to the 16 ANSI colors so it follows the terminal's own
// palette.
var Terminal = Theme{
	Name:  "terminal",
	Label: "Terminal (ANSI 16)",

	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	KeyHint:      lipgloss.Color("6"),
	Error:        lipgloss.Color("1"),

	User:       lipgloss.Color("14"),
	Agent:      lipgloss.Color("4"),
	Command:    lipgloss.Color("3"),
	Meta:       lipgloss.Color("5"),
	StepActive: lipgloss.Color("11"),
	StepDone:   lipgloss.Color("2"),
}

// All lists the built-in themes in picker order.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns the theme called name, or FlexokiDark.
func ByName(name string) Theme {
	if t, ok := lookup(name); ok {
		return t
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Known reports whether name is one of the built-in themes.
func Known(name string) bool {
	_, ok := lookup(name)
	return ok
}

func lookup(name string) (Theme, bool) {
	for _, t := range All {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}
