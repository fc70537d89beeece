package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gistlabs/gistctl/internal/shared"
	"github.com/gistlabs/gistctl/internal/tracker"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackingView ViewState = iota
	IdeasView
	ErrorView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	engine    *tracker.Engine
	sourceURL string
	mode      string
	width     int
	height    int
	spin      spinner.Model
	bar       progress.Model
	state     tracker.State
	ideaList  list.Model
	listReady bool
	err       error
	help      help.Model
	keys      keyMap
}

type stateMsg tracker.State

type mountDoneMsg struct {
	err error
}

// NewModel creates a new TUI model around a tracker engine. A non-empty
// sourceURL submits a new job on mount; an empty one resumes tracking
// of whatever job the engine can find.
func NewModel(ctx context.Context, engine *tracker.Engine, sourceURL, mode string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title

	return &Model{
		ctx:       ctx,
		view:      TrackingView,
		engine:    engine,
		sourceURL: sourceURL,
		mode:      mode,
		spin:      s,
		bar:       progress.New(progress.WithDefaultGradient()),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init mounts the tracker (submit or resume) and starts listening for updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.mount(), m.waitForUpdate())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(msg.Width-8, 60)
		if m.listReady {
			m.ideaList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackingView:
			return m.handleTrackingKeys(msg)
		case IdeasView:
			return m.handleIdeasKeys(msg)
		case ErrorView:
			return m.handleErrorKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case mountDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ErrorView
		}
		return m, nil

	case stateMsg:
		m.state = tracker.State(msg)
		switch {
		case m.state.Failed():
			m.view = ErrorView
		case m.state.Complete():
			m.buildIdeaList()
			m.view = IdeasView
		default:
			m.view = TrackingView
		}
		return m, m.waitForUpdate()
	}

	if m.view == IdeasView && m.listReady {
		var cmd tea.Cmd
		m.ideaList, cmd = m.ideaList.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case TrackingView:
		return m.renderTracking()
	case IdeasView:
		return m.renderIdeas()
	case ErrorView:
		return m.renderError()
	default:
		return ""
	}
}

func (m *Model) handleTrackingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.engine.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleIdeasKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.engine.Close()
		return m, tea.Quit
	case "r":
		if m.sourceURL != "" {
			return m.restart()
		}
	}

	var cmd tea.Cmd
	m.ideaList, cmd = m.ideaList.Update(msg)
	return m, cmd
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.engine.Close()
		return m, tea.Quit
	case "r":
		if m.sourceURL != "" {
			return m.restart()
		}
	}
	return m, nil
}

// restart discards the failed or finished job and resubmits the same URL.
func (m *Model) restart() (tea.Model, tea.Cmd) {
	m.engine.Reset()
	m.err = nil
	m.listReady = false
	m.view = TrackingView
	return m, tea.Batch(m.mount(), m.spin.Tick)
}

func (m *Model) mount() tea.Cmd {
	return func() tea.Msg {
		if m.sourceURL != "" {
			return mountDoneMsg{err: m.engine.Submit(m.ctx, m.sourceURL, m.mode)}
		}
		if err := m.engine.Resume(m.ctx); err != nil {
			return mountDoneMsg{err: err}
		}
		if m.engine.State().JobID == "" {
			return mountDoneMsg{err: fmt.Errorf("%w: nothing to resume", shared.ErrNoActiveJob)}
		}
		return mountDoneMsg{}
	}
}

// waitForUpdate blocks on the engine's update channel and re-arms after
// every delivery.
func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.engine.Updates()
	return func() tea.Msg {
		return stateMsg(<-updates)
	}
}

func (m *Model) buildIdeaList() {
	items := make([]list.Item, len(m.state.Ideas))
	for i, idea := range m.state.Ideas {
		items[i] = ideaItem{idea: idea}
	}
	m.ideaList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	title := "Extracted Ideas"
	if m.state.Title != "" {
		title = fmt.Sprintf("Ideas from '%s'", m.state.Title)
	}
	m.ideaList.Title = title
	m.ideaList.SetSize(m.width-4, m.height-8)
	m.listReady = true
}

func (m *Model) renderTracking() string {
	title := styles.title.Render("Processing Video")

	label := m.state.StageLabel
	if label == "" {
		label = "Starting..."
	}

	var meta string
	if m.state.Title != "" {
		meta = fmt.Sprintf("\n%s [%s]", m.state.Title, shared.FormatDuration(m.state.Duration))
	}

	bar := m.bar.ViewAs(float64(m.state.Percent) / 100)

	var message string
	if m.state.Message != "" {
		message = "\n" + styles.help.Render(m.state.Message)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	return fmt.Sprintf("%s\n%s %s%s\n\n%s %d%%%s\n\n%s",
		title, m.spin.View(), label, meta, bar, m.state.Percent, message, helpView)
}

func (m *Model) renderIdeas() string {
	if !m.listReady {
		return styles.ok.Render("✓ Processing complete") + "\n\nNo ideas returned.\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.quit})
	}

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.retry, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.ideaList.View(), helpView)
}

func (m *Model) renderError() string {
	detail := m.state.Err
	if detail == "" && m.err != nil {
		detail = m.err.Error()
	}
	if detail == "" {
		detail = "processing failed"
	}

	title := styles.err.Render("✗ Processing Failed")
	body := detail
	if m.state.Message != "" && m.state.Message != detail {
		body = fmt.Sprintf("%s\n%s", m.state.Message, detail)
	}

	helpKeys := []key.Binding{m.keys.retry, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, helpView)
}
