// Package tui provides the interactive Bubble Tea session browser for rollview.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/rollview/internal/cli"
	"github.com/theirongolddev/rollview/internal/config"
	"github.com/theirongolddev/rollview/internal/loader"
	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/pipeline"
	"github.com/theirongolddev/rollview/internal/source"
	"github.com/theirongolddev/rollview/internal/store"
	"github.com/theirongolddev/rollview/internal/tui/components"
	"github.com/theirongolddev/rollview/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the session listing finishes loading.
type DataLoadedMsg struct {
	Sessions []model.SessionSummary
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports file summarizing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background rescan completes.
type RefreshDataMsg struct {
	Sessions []model.SessionSummary
	LoadTime time.Duration
	Err      error
}

// snapshotMsg carries a coordinator snapshot into the update loop.
type snapshotMsg struct {
	snap loader.Snapshot
}

// Options configures the browser.
type Options struct {
	SessionsDir string
	Project     string
	UseIndex    bool
	Config      config.Config
	NeedSetup   bool
}

type focusPane int

const (
	focusList focusPane = iota
	focusTranscript
)

// App is the root Bubble Tea model.
type App struct {
	// Data
	sessions []model.SessionSummary
	loaded   bool
	loadErr  error
	loadTime time.Duration
	rescan   bool

	cfg         config.Config
	sessionsDir string
	project     string
	useIndex    bool

	// UI state
	width    int
	height   int
	showHelp bool
	focus    focusPane
	list     listState

	// Transcript pane
	coord            *loader.Coordinator
	cache            *loader.LRUCache
	snapCh           chan loader.Snapshot
	current          loader.Snapshot
	selectedID       string
	viewport         viewport.Model
	expand           bool
	wrap             bool
	showInstructions bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	spinning    bool
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	maxListWidth     = 60
	minListWidth     = 30

	chromeHeight   = 2 // title line + status bar
	paneOverhead   = 3 // card border + title
	headerOverhead = 2 // stat line + rule
	wheelStep      = 3
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	snapCh := make(chan loader.Snapshot, 32)
	cache := loader.NewLRUCache(opts.Config.Cache.Transcripts)
	coord := loader.New(
		cache,
		loader.WithObserver(func(s loader.Snapshot) { snapCh <- s }),
	)

	vals := SetupValuesFrom(opts.Config, opts.SessionsDir)

	return App{
		cfg:         opts.Config,
		sessionsDir: opts.SessionsDir,
		project:     opts.Project,
		useIndex:    opts.UseIndex,
		needSetup:   opts.NeedSetup,
		setupVals:   &vals,
		coord:       coord,
		cache:       cache,
		snapCh:      snapCh,
		wrap:        opts.Config.TUI.Wrap,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		spinning:    true,
		loadSub:     make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.sessionsDir, a.project, a.useIndex, a.loadSub),
		waitForSnapshot(a.snapCh),
		a.spinner.Tick,
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		a.layout()
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scroll(-wheelStep)
		case tea.MouseButtonWheelDown:
			a.scroll(wheelStep)
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadErr = msg.Err
		a.loadTime = msg.LoadTime
		a.sessions = msg.Sessions
		a.list.clamp(len(a.visibleSessions()))

		if a.needSetup {
			a.setupForm = NewSetupForm(len(a.sessions), a.sessionsDir, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		sel := a.selectCurrent(false)
		return a, sel

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case RefreshDataMsg:
		a.rescan = false
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.loadErr = nil
		a.loadTime = msg.LoadTime
		a.sessions = msg.Sessions
		// Rescanned files may have grown since they were cached.
		a.cache.Purge()
		a.list.clamp(len(a.visibleSessions()))
		sel := a.selectCurrent(false)
		return a, sel

	case snapshotMsg:
		a.current = msg.snap
		a.refreshViewport(msg.snap.SessionID != a.viewportSession())
		cmds := []tea.Cmd{waitForSnapshot(a.snapCh)}
		if msg.snap.State == loader.StateLoading && !a.spinning {
			a.spinning = true
			cmds = append(cmds, a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !a.loaded || a.current.State == loader.StateLoading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		a.spinning = false
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Search mode intercepts all keys when active
	if a.list.searching {
		return a.updateSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	visible := a.visibleSessions()

	switch key {
	case "q":
		return a, tea.Quit
	case "/":
		a.list.startSearch()
		return a, a.list.input.Cursor.BlinkCmd()
	case "esc":
		if a.list.query != "" {
			a.list.query = ""
			a.list.cursor, a.list.offset = 0, 0
			sel := a.selectCurrent(false)
			return a, sel
		}
		a.focus = focusList
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusTranscript
		} else {
			a.focus = focusList
		}
		return a, nil
	case "enter":
		a.expand = !a.expand
		a.refreshViewport(false)
		return a, nil
	case "i":
		a.showInstructions = !a.showInstructions
		a.refreshViewport(false)
		return a, nil
	case "w":
		a.wrap = !a.wrap
		a.refreshViewport(false)
		return a, nil
	case "r":
		sel := a.selectCurrent(true)
		return a, sel
	case "R":
		if a.rescan {
			return a, nil
		}
		a.rescan = true
		return a, refreshDataCmd(a.sessionsDir, a.project, a.useIndex)
	case "J":
		a.scroll(1)
		return a, nil
	case "K":
		a.scroll(-1)
		return a, nil
	case "ctrl+d":
		a.scroll(a.viewport.Height / 2)
		return a, nil
	case "ctrl+u":
		a.scroll(-a.viewport.Height / 2)
		return a, nil
	}

	if a.focus == focusTranscript {
		switch key {
		case "j", "down":
			a.scroll(1)
		case "k", "up":
			a.scroll(-1)
		case "pgdown", " ":
			a.scroll(a.viewport.Height)
		case "pgup":
			a.scroll(-a.viewport.Height)
		case "g":
			a.viewport.GotoTop()
		case "G":
			a.viewport.GotoBottom()
		}
		return a, nil
	}

	moved := false
	switch key {
	case "j", "down":
		moved = a.list.move(1, len(visible))
	case "k", "up":
		moved = a.list.move(-1, len(visible))
	case "pgdown":
		moved = a.list.move(a.listRows(), len(visible))
	case "pgup":
		moved = a.list.move(-a.listRows(), len(visible))
	case "g":
		moved = a.list.move(-len(visible), len(visible))
	case "G":
		moved = a.list.move(len(visible), len(visible))
	}
	if moved {
		a.list.scrollTo(a.listRows())
		sel := a.selectCurrent(false)
		return a, sel
	}
	return a, nil
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.list.applySearch()
		sel := a.selectCurrent(false)
		return a, sel
	case "esc":
		a.list.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.list.input, cmd = a.list.input.Update(msg)
	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.loadErr = err
		}
		a.wrap = a.cfg.TUI.Wrap
		a.needSetup = false
		a.setupForm = nil
		if dir := a.cfg.SessionsDir(source.DefaultSessionsDir()); dir != a.sessionsDir {
			a.sessionsDir = dir
			a.rescan = true
			return a, refreshDataCmd(a.sessionsDir, a.project, a.useIndex)
		}
		sel := a.selectCurrent(false)
		return a, sel
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		sel := a.selectCurrent(false)
		return a, sel
	}

	return a, cmd
}

// visibleSessions returns sessions filtered by the current search query.
func (a App) visibleSessions() []model.SessionSummary {
	return pipeline.Search(a.sessions, a.list.query)
}

// selectCurrent loads the session under the cursor. Rapid navigation issues
// many loads; the coordinator only publishes the latest.
func (a *App) selectCurrent(force bool) tea.Cmd {
	visible := a.visibleSessions()
	if len(visible) == 0 {
		if a.selectedID == "" {
			return nil
		}
		a.selectedID = ""
		coord := a.coord
		return func() tea.Msg {
			coord.Reset()
			return nil
		}
	}

	sess := visible[a.list.cursor]
	if sess.SessionID == a.selectedID && !force {
		return nil
	}
	a.selectedID = sess.SessionID

	coord := a.coord
	req := loader.Request{
		SessionID: sess.SessionID,
		Open:      source.FileOpener(sess.Path),
		Force:     force,
	}
	return func() tea.Msg {
		_, _ = coord.Load(context.Background(), req)
		return nil
	}
}

func waitForSnapshot(ch chan loader.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: <-ch}
	}
}

// ─── Layout ─────────────────────────────────────────────────────

func (a App) listWidth() int {
	w := a.width / 3
	if w > maxListWidth {
		w = maxListWidth
	}
	if w < minListWidth {
		w = minListWidth
	}
	return w
}

func (a App) bodyHeight() int {
	h := a.height - chromeHeight
	if h < paneOverhead+headerOverhead+1 {
		h = paneOverhead + headerOverhead + 1
	}
	return h
}

// listRows is how many sessions fit in the list pane.
func (a App) listRows() int {
	rows := a.bodyHeight() - paneOverhead
	if a.list.searching || a.list.query != "" {
		rows--
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (a *App) layout() {
	rightW := a.width - a.listWidth()
	a.viewport.Width = components.CardInnerWidth(rightW)
	a.viewport.Height = a.bodyHeight() - paneOverhead - headerOverhead
	a.refreshViewport(false)
}

func (a App) viewportSession() string {
	return a.list.renderedFor
}

// refreshViewport re-renders the transcript into the viewport. reset scrolls
// back to the top, used when a different session is shown.
func (a *App) refreshViewport(reset bool) {
	content := renderSnapshot(a.current, transcriptOptions{
		width:            a.viewport.Width,
		wrap:             a.wrap,
		expand:           a.expand,
		showInstructions: a.showInstructions,
	})
	a.viewport.SetContent(content)
	a.list.renderedFor = a.current.SessionID
	if reset {
		a.viewport.GotoTop()
	}
}

func (a *App) scroll(n int) {
	a.viewport.SetYOffset(a.viewport.YOffset + n)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	return fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  rollview needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ rollview"))
	b.WriteString(subtitleStyle.Render(" · agent session transcripts"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := 40
		if barW > a.width-30 {
			barW = a.width - 30
		}
		if barW < 20 {
			barW = 20
		}
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Indexing sessions\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Discovering sessions..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.KeyHint).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"j k", "Move selection / scroll"},
			{"g G", "First / last"},
			{"tab", "Switch pane"},
			{"J K", "Scroll transcript"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"/", "Search sessions"},
			{"Enter", "Expand / fold commands"},
			{"i", "Toggle instructions"},
			{"w", "Toggle wrapping"},
			{"r", "Reload transcript"},
			{"R", "Rescan sessions"},
			{"Esc", "Clear search"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewMain() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	dirStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	title := titleStyle.Render(" ◈ rollview ") + dirStyle.Render(a.sessionsDir)
	if a.project != "" {
		title += dirStyle.Render("  project: " + a.project)
	}

	listW := a.listWidth()
	body := components.CardRow([]string{
		a.renderList(listW),
		a.renderTranscriptPane(a.width - listW),
	})

	return lipgloss.JoinVertical(lipgloss.Left, title, body, a.renderStatusBar())
}

func (a App) renderTranscriptPane(outerW int) string {
	t := theme.Active
	snap := a.current
	inner := components.CardInnerWidth(outerW)

	var stats []components.Stat
	if snap.State == loader.StateReady {
		tr := snap.Transcript
		cwd := tr.WorkingDirectory
		if cwd == "" {
			cwd = "-"
		}
		stats = []components.Stat{
			{Label: "cwd", Value: cli.Truncate(cwd, inner/2)},
			{Label: "tokens", Value: cli.FormatTokens(tr.TotalTokens)},
			{Label: "steps", Value: cli.FormatNumber(int64(len(tr.Messages)))},
		}
	}
	header := components.StatLine(stats, inner)
	rule := lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", inner))

	title := "Transcript"
	if snap.SessionID != "" {
		title += " " + cli.ShortID(snap.SessionID)
	}
	if snap.State == loader.StateLoading {
		title += " " + a.spinner.View()
	}

	body := header + "\n" + rule + "\n" + a.viewport.View()
	if a.focus == focusTranscript {
		return components.FocusedCard(title, body, outerW)
	}
	return components.ContentCard(title, body, outerW)
}

func (a App) renderStatusBar() string {
	status, kind := "", components.StatusInfo
	switch a.current.State {
	case loader.StateLoading:
		status, kind = "Loading…", components.StatusBusy
	case loader.StateFailed:
		status, kind = a.current.Message, components.StatusError
	case loader.StateReady:
		status = "Ready"
		if a.current.FromCache {
			status += " (cached)"
		}
		if n := a.current.Stats.MalformedLines; n > 0 {
			status += fmt.Sprintf(" · %d lines skipped", n)
		}
	}
	if a.loadErr != nil {
		status, kind = "Error: "+a.loadErr.Error(), components.StatusError
	}
	if a.rescan {
		status, kind = "Rescanning…", components.StatusBusy
	}

	right := fmt.Sprintf("%d sessions", len(a.visibleSessions()))
	if a.current.State == loader.StateReady {
		right = cli.FormatTokens(a.current.Transcript.TotalTokens) + " tokens · " + right
	}
	if a.expand {
		right = "expanded · " + right
	}
	return components.RenderStatusBar(a.width, status, kind, right)
}

// ─── Loading ────────────────────────────────────────────────────

// loadSessions runs the listing pipeline, using the sqlite index when asked
// and falling back to a full scan.
func loadSessions(sessionsDir, project string, useIndex bool, progressFn pipeline.ProgressFunc) ([]model.SessionSummary, error) {
	ctx := context.Background()
	var sessions []model.SessionSummary

	loaded := false
	if useIndex {
		idx, err := store.Open(pipeline.CachePath())
		if err == nil {
			ir, loadErr := pipeline.LoadWithIndex(ctx, sessionsDir, idx, progressFn)
			_ = idx.Close()
			if loadErr == nil {
				sessions, loaded = ir.Sessions, true
			}
		}
	}
	if !loaded {
		result, err := pipeline.Load(ctx, sessionsDir, progressFn)
		if err != nil {
			return nil, err
		}
		sessions = result.Sessions
	}

	return pipeline.FilterByProject(pipeline.HideTrivial(sessions), project), nil
}

// loadDataCmd starts the listing pipeline in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(sessionsDir, project string, useIndex bool, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			sessions, err := loadSessions(sessionsDir, project, useIndex, progressFn)
			sub <- DataLoadedMsg{Sessions: sessions, LoadTime: time.Since(start), Err: err}
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd rescans sessions in the background (no progress UI).
func refreshDataCmd(sessionsDir, project string, useIndex bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		sessions, err := loadSessions(sessionsDir, project, useIndex, nil)
		return RefreshDataMsg{Sessions: sessions, LoadTime: time.Since(start), Err: err}
	}
}
