package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/nodewatch/internal/poll"
	"github.com/five82/nodewatch/internal/prefs"
	"github.com/five82/nodewatch/internal/status"
)

// SnapshotSource is the read side of status.Store.
type SnapshotSource interface {
	Snapshot() status.Snapshot
	Changed() <-chan struct{}
}

// Refresher is the part of poll.Scheduler the UI drives.
type Refresher interface {
	Refresh() <-chan poll.Outcome
	State() poll.State
}

// VersionFunc fetches the node software version.
type VersionFunc func(ctx context.Context) (string, error)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     SnapshotSource
	Refresher Refresher
	Version   VersionFunc
	Logger    *slog.Logger

	Endpoint  string
	CACertURL string

	ThemeName string
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     SnapshotSource
	refresher Refresher
	version   VersionFunc
	logger    *slog.Logger
	endpoint  string
	caCertURL string
	prefsPath string

	// UI state
	theme    Theme
	keys     keyMap
	spinner  spinner.Model
	body     viewport.Model
	width    int
	height   int
	ready    bool
	showHelp bool

	// Data state
	snapshot       status.Snapshot
	nodeVersion    string
	versionPending bool
	refreshing     int
	requesting     bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		refresher: opts.Refresher,
		version:   opts.Version,
		logger:    logger,
		endpoint:  opts.Endpoint,
		caCertURL: opts.CACertURL,
		prefsPath: opts.PrefsPath,
		theme:     GetTheme(themeName),
		keys:      DefaultKeyMap(),
		spinner:   sp,
		snapshot:  status.Snapshot{Status: status.Initial()},
	}
	m.applyTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		tickCmd(uiTick),
	}
	if m.store != nil {
		cmds = append(cmds, waitForChangeCmd(m.ctx, m.store, 0))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeBody()
		m.updateBody()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.refresher != nil {
			m.requesting = m.refresher.State() == poll.StateRequesting
		}
		return m, tickCmd(uiTick)

	case snapshotMsg:
		m.snapshot = status.Snapshot(msg)
		m.updateBody()
		cmds := []tea.Cmd{waitForChangeCmd(m.ctx, m.store, m.snapshot.Generation)}
		if cmd := m.maybeFetchVersion(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case refreshDoneMsg:
		if m.refreshing > 0 {
			m.refreshing--
		}
		return m, nil

	case versionMsg:
		m.versionPending = false
		if msg.err != nil {
			m.logger.Debug("version request failed", "error", msg.err)
			return m, nil
		}
		m.nodeVersion = msg.version
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refresher == nil {
			return m, nil
		}
		m.refreshing++
		return m, awaitRefreshCmd(m.refresher.Refresh())

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.updateBody()
		if m.prefsPath != "" {
			if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
				m.logger.Warn("save preferences failed", "error", err)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m *Model) applyTheme() {
	m.spinner.Style = lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Background(lipgloss.Color(m.theme.Surface))
}

func (m *Model) resizeBody() {
	height := m.height - chromeHeight
	if height < 1 {
		height = 1
	}
	if m.body.Width == 0 && m.body.Height == 0 {
		m.body = viewport.New(m.width, height)
		return
	}
	m.body.Width = m.width
	m.body.Height = height
}

func (m *Model) updateBody() {
	if !m.ready {
		return
	}
	m.body.SetContent(m.renderCard())
}

// maybeFetchVersion asks for the node version once the node has answered a
// status request and the version is still unknown.
func (m *Model) maybeFetchVersion() tea.Cmd {
	if m.version == nil || !m.snapshot.HasStatus || m.nodeVersion != "" || m.versionPending {
		return nil
	}
	m.versionPending = true
	return fetchVersionCmd(m.ctx, m.version)
}

func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.body.View())

	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg status.Snapshot

type refreshDoneMsg poll.Outcome

type versionMsg struct {
	version string
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChangeCmd blocks until the store holds a generation other than
// seen. The change channel is taken before the snapshot is read so a
// replacement landing in between is never missed.
func waitForChangeCmd(ctx context.Context, store SnapshotSource, seen uint64) tea.Cmd {
	return func() tea.Msg {
		changed := store.Changed()
		if snap := store.Snapshot(); snap.Generation != seen {
			return snapshotMsg(snap)
		}
		select {
		case <-changed:
			return snapshotMsg(store.Snapshot())
		case <-ctx.Done():
			return nil
		}
	}
}

func awaitRefreshCmd(done <-chan poll.Outcome) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg(<-done)
	}
}

func fetchVersionCmd(ctx context.Context, fetch VersionFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, versionTimeout)
		defer cancel()
		v, err := fetch(ctx)
		return versionMsg{version: v, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
