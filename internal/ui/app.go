// Package ui provides the Bubble Tea catalog browser for rack.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/five82/rack/internal/auth"
	"github.com/five82/rack/internal/bookmarks"
	"github.com/five82/rack/internal/browse"
	"github.com/five82/rack/internal/catalog"
	"github.com/five82/rack/internal/logging"
	"github.com/five82/rack/internal/prefs"
	"github.com/five82/rack/internal/state"
)

// ErrLoginRequired is returned by Run when the session ended on the sign-in
// route.
var ErrLoginRequired = errors.New("sign-in required")

// Controller is the browse surface the UI drives.
type Controller interface {
	Start(ctx context.Context) auth.Result
	Refresh(ctx context.Context) bool
	NextPage(ctx context.Context) bool
	PrevPage(ctx context.Context) bool
	LoadMore(ctx context.Context) bool
	SetSearch(ctx context.Context, text string) bool
	SetCategory(ctx context.Context, category string) bool
	SetSort(ctx context.Context, field string, order state.SortOrder) bool
	ToggleBookmarksOnly(ctx context.Context) bool
	ToggleBookmark(ctx context.Context, itemID int) (bookmarks.Outcome, error)
	Logout(ctx context.Context) error
	Snapshot() state.Snapshot
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Bridge     *Bridge
	Prefs      prefs.Prefs
	PrefsPath  string
	PollTick   time.Duration
	Logger     zerolog.Logger
}

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputCategory
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	ctrl      Controller
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration
	logger    zerolog.Logger

	theme   Theme
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	mode    inputMode

	width    int
	height   int
	ready    bool
	showHelp bool

	items    []catalog.Item
	selected int
	canPrev  bool
	canNext  bool
	snapshot state.Snapshot
	inflight int

	notice         string
	noticeSeverity browse.Severity

	loginRequired bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}

	m := Model{
		ctx:       ctx,
		ctrl:      opts.Controller,
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		pollTick:  pollTick,
		logger:    logging.Component(opts.Logger, "ui"),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:     textinput.New(),
	}
	m.input.CharLimit = 120
	m.applyTheme(GetTheme(opts.Prefs.Theme))
	if m.ctrl != nil {
		m.snapshot = m.ctrl.Snapshot()
		m.inflight = 1 // startup sequence
	}
	return m
}

func (m *Model) applyTheme(t Theme) {
	m.theme = t
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent))
	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning))
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted))
	m.help.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint))
	m.input.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent))
	m.input.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text))
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, tickCmd(m.pollTick)}
	if m.ctrl != nil {
		cmds = append(cmds, startCmd(m.ctx, m.ctrl))
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
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-20)
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.refreshSnapshot()
		return m, tickCmd(m.pollTick)

	case startedMsg:
		m.inflight = max(0, m.inflight-1)
		m.refreshSnapshot()
		if msg.result.Authenticated {
			m.logger.Debug().Str("user_id", msg.result.UserID).Msg("browser started")
		}
		return m, nil

	case actionDoneMsg:
		m.inflight = max(0, m.inflight-1)
		m.refreshSnapshot()
		if msg.name == "sort" && msg.accepted {
			m.persistSort()
		}
		return m, nil

	case bookmarkDoneMsg:
		m.inflight = max(0, m.inflight-1)
		m.refreshSnapshot()
		return m, nil

	case renderMsg:
		if msg.append {
			m.items = append(m.items, msg.items...)
		} else {
			m.items = msg.items
			m.selected = 0
		}
		m.clampSelection()
		return m, nil

	case paginationMsg:
		m.canPrev = msg.canPrev
		m.canNext = msg.canNext
		return m, nil

	case noticeMsg:
		m.notice = msg.text
		m.noticeSeverity = msg.severity
		return m, nil

	case loginRequiredMsg:
		m.loginRequired = true
		m.items = nil
		m.selected = 0
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.loginRequired {
		return m.renderLoginRequired()
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m *Model) refreshSnapshot() {
	if m.ctrl != nil {
		m.snapshot = m.ctrl.Snapshot()
	}
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) loading() bool {
	return m.inflight > 0 || m.snapshot.Loading
}

func (m *Model) persistSort() {
	q := m.snapshot.Query
	m.prefs.Sort = q.SortField
	m.prefs.Order = string(q.SortOrder)
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn().Err(err).Msg("save preferences")
	}
}

// Messages

type tickMsg time.Time

type startedMsg struct {
	result auth.Result
}

type actionDoneMsg struct {
	name     string
	accepted bool
}

type bookmarkDoneMsg struct {
	outcome bookmarks.Outcome
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func startCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return startedMsg{result: ctrl.Start(ctx)}
	}
}

// action runs a controller trigger off the update loop; controller output
// arrives separately through the Bridge.
func (m *Model) action(name string, fn func(ctx context.Context) bool) tea.Cmd {
	m.inflight++
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{name: name, accepted: fn(ctx)}
	}
}

func (m *Model) toggleBookmark(itemID int) tea.Cmd {
	m.inflight++
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		outcome, err := ctrl.ToggleBookmark(ctx, itemID)
		return bookmarkDoneMsg{outcome: outcome, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
		opts.Context = ctx
	}
	if opts.Controller == nil {
		return fmt.Errorf("ui requires a controller")
	}

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Bridge != nil {
		opts.Bridge.Attach(p)
		defer opts.Bridge.Attach(nil)
	}

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.loginRequired {
		return ErrLoginRequired
	}
	return nil
}
