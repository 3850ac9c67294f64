package tui

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/mosaic/internal/events"
	"github.com/mattjoyce/mosaic/internal/layout"
	"github.com/mattjoyce/mosaic/internal/scheduler"
)

const pauseReasonUser = "user request"

// Options wires the model to the running subsystems.
type Options struct {
	Title     string
	FrameRate int
	Theme     Theme
	Engine    *layout.Engine
	Scheduler *scheduler.Scheduler
	Hub       *events.Hub
	// Content returns a widget's last rendered output.
	Content func(name string) string
}

// Model is the bubbletea model for the dashboard. It only reads
// scheduler snapshots and rendered content; every mutation goes through
// exported scheduler calls.
type Model struct {
	ctx  context.Context
	opts Options

	width  int
	height int

	frameEvery time.Duration
	order      []string
	statuses   map[string]scheduler.WidgetStatus
	focused    string

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	lastTopic string
	lastAt    time.Time

	hubEvents <-chan events.Event
	cancelSub func()
}

// New builds the model and subscribes to the hub. Call Close after the
// program exits to release the subscription.
func New(ctx context.Context, opts Options) *Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 10
	}
	if opts.Content == nil {
		opts.Content = func(string) string { return "" }
	}
	if opts.Hub == nil {
		opts.Hub = events.NewHub(16)
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = opts.Theme.Accent

	hl := help.New()
	hl.Styles.ShortKey = opts.Theme.Muted
	hl.Styles.ShortDesc = opts.Theme.Muted
	hl.Styles.ShortSeparator = opts.Theme.Muted

	ch, cancel := opts.Hub.Subscribe()
	return &Model{
		ctx:        ctx,
		opts:       opts,
		frameEvery: time.Second / time.Duration(opts.FrameRate),
		statuses:   make(map[string]scheduler.WidgetStatus),
		keys:       defaultKeyMap(),
		help:       hl,
		spinner:    sp,
		hubEvents:  ch,
		cancelSub:  cancel,
	}
}

// Close releases the hub subscription.
func (m *Model) Close() {
	if m.cancelSub != nil {
		m.cancelSub()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		receiveNextEvent(m.hubEvents),
		frameTick(m.frameEvery),
		m.spinner.Tick,
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.togglePause()
		case key.Matches(msg, m.keys.Focus):
			m.cycleFocus(1)
		case key.Matches(msg, m.keys.FocusPrev):
			m.cycleFocus(-1)
		case key.Matches(msg, m.keys.Blur):
			m.focused = ""
		case key.Matches(msg, m.keys.Refresh):
			m.forceRefresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Header and footer take one line each.
		m.opts.Engine.SetViewport(m.width, max(m.height-2, 0))

	case frameMsg:
		m.refresh()
		return m, frameTick(m.frameEvery)

	case eventMsg:
		m.lastTopic = msg.Topic
		m.lastAt = msg.At
		return m, receiveNextEvent(m.hubEvents)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	paused, failing := 0, 0
	for _, st := range m.statuses {
		switch {
		case st.PauseReason == scheduler.ReasonTooManyErrors:
			failing++
		case st.Paused:
			paused++
		}
	}

	header := renderHeader(m.opts.Theme, m.width, headerState{
		title:     m.opts.Title,
		spin:      m.activity(),
		suspended: m.opts.Scheduler.Suspended(),
		widgets:   len(m.order),
		paused:    paused,
		failing:   failing,
	})

	panes := renderPanes(m.opts.Engine, m.statuses, m.opts.Content, m.focused, m.opts.Theme)
	grid := composeGrid(m.width, max(m.height-2, 0), panes)

	lastEvent := ""
	if m.lastTopic != "" {
		lastEvent = fmt.Sprintf("%s %s", m.lastTopic, formatAgo(m.lastAt))
	}
	footer := renderFooter(m.opts.Theme, m.width, m.help.View(m.keys), lastEvent)

	return lipgloss.JoinVertical(lipgloss.Left, header, grid, footer)
}

// refresh pulls widget order and scheduler state for the next frame.
func (m *Model) refresh() {
	m.order = m.opts.Engine.Widgets()
	statuses := make(map[string]scheduler.WidgetStatus, len(m.order))
	for _, st := range m.opts.Scheduler.Snapshot() {
		statuses[st.Name] = st
	}
	m.statuses = statuses
	if m.focused != "" && !slices.Contains(m.order, m.focused) {
		m.focused = ""
	}
}

// togglePause acts on the focused widget when there is one, otherwise
// on the whole scheduler.
func (m *Model) togglePause() {
	if m.focused == "" {
		if m.opts.Scheduler.Suspended() {
			m.opts.Scheduler.Resume(m.ctx)
		} else {
			m.opts.Scheduler.Pause()
		}
		return
	}
	if st, ok := m.opts.Scheduler.Status(m.focused); ok && st.Paused {
		m.opts.Scheduler.ResumeWidget(m.ctx, m.focused)
	} else {
		m.opts.Scheduler.PauseWidget(m.focused, pauseReasonUser)
	}
}

func (m *Model) cycleFocus(step int) {
	if len(m.order) == 0 {
		m.focused = ""
		return
	}
	idx := slices.Index(m.order, m.focused)
	if idx < 0 {
		if step < 0 {
			m.focused = m.order[len(m.order)-1]
		} else {
			m.focused = m.order[0]
		}
		return
	}
	m.focused = m.order[(idx+step+len(m.order))%len(m.order)]
}

// forceRefresh jumps the focused widget to the head of the update
// queue, or every widget when none is focused.
func (m *Model) forceRefresh() {
	if m.focused != "" {
		m.opts.Scheduler.EnqueueUpdate(m.ctx, m.focused, true)
		return
	}
	for _, name := range m.order {
		m.opts.Scheduler.EnqueueUpdate(m.ctx, name, true)
	}
}

// activity returns the header indicator: a live spinner while work is
// in flight or events are fresh, a still dot when idle.
func (m Model) activity() string {
	active := !m.lastAt.IsZero() && time.Since(m.lastAt) < 2*time.Second
	if !active {
		for _, st := range m.statuses {
			if st.Updating || st.Rendering || st.QueuedUpdate || st.QueuedRender {
				active = true
				break
			}
		}
	}
	if active {
		return m.spinner.View()
	}
	return m.opts.Theme.Muted.Render("○")
}

// Run drives the dashboard program until a quit key or context cancel.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Cancellation is the normal shutdown path, not a failure.
		return nil
	}
	return err
}
