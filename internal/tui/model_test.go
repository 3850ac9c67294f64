package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/mosaic/internal/config"
	"github.com/mattjoyce/mosaic/internal/events"
	"github.com/mattjoyce/mosaic/internal/layout"
	"github.com/mattjoyce/mosaic/internal/scheduler"
)

type noopRunner struct{}

func (noopRunner) Update(context.Context, string) error           { return nil }
func (noopRunner) Render(context.Context, string) (string, error) { return "", nil }

func newTestModel(t *testing.T) (*Model, *scheduler.Scheduler, *layout.Engine) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := layout.New(layout.Config{Rows: 2, Cols: 2}, logger)
	require.NoError(t, err)
	_, err = eng.AddWidget("alpha", layout.Position{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1})
	require.NoError(t, err)
	_, err = eng.AddWidget("beta", layout.Position{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1})
	require.NoError(t, err)

	hub := events.NewHub(16)
	sched := scheduler.New(scheduler.Config{}, noopRunner{}, hub, logger)
	sched.Register("alpha", scheduler.WidgetOptions{Priority: 1})
	sched.Register("beta", scheduler.WidgetOptions{})

	m := New(context.Background(), Options{
		Title:     "test",
		FrameRate: 10,
		Theme:     NewTheme(config.Defaults().Theme),
		Engine:    eng,
		Scheduler: sched,
		Hub:       hub,
		Content:   func(name string) string { return "content-" + name },
	})
	t.Cleanup(m.Close)
	return m, sched, eng
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m tea.Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	require.True(t, ok)
	return mm, cmd
}

func TestModelViewBeforeFirstResize(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Equal(t, "Initializing...", m.View())
}

func TestModelResizeSetsViewport(t *testing.T) {
	m, _, eng := newTestModel(t)

	mm, _ := step(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	rect, ok := eng.Region("alpha")
	require.True(t, ok)
	assert.Equal(t, 30, rect.W)
	assert.Equal(t, 9, rect.H) // 18 grid lines over 2 rows

	view := mm.View()
	assert.Contains(t, view, "test")
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "content-alpha")
	assert.Contains(t, view, "content-beta")
}

func TestModelFrameRefreshesState(t *testing.T) {
	m, _, _ := newTestModel(t)

	mm, cmd := step(t, m, frameMsg(time.Now()))
	assert.Equal(t, []string{"alpha", "beta"}, mm.order)
	assert.Contains(t, mm.statuses, "alpha")
	assert.Contains(t, mm.statuses, "beta")
	require.NotNil(t, cmd, "frame tick must re-arm")
}

func TestModelQuitKeys(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, quit = cmd().(tea.QuitMsg)
	assert.True(t, quit)
}

func TestModelGlobalPauseToggle(t *testing.T) {
	m, sched, _ := newTestModel(t)

	mm, _ := step(t, m, keyMsg("p"))
	assert.True(t, sched.Suspended())

	step(t, mm, keyMsg("p"))
	assert.False(t, sched.Suspended())
}

func TestModelFocusCycle(t *testing.T) {
	m, _, _ := newTestModel(t)

	mm, _ := step(t, m, frameMsg(time.Now()))

	mm, _ = step(t, mm, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "alpha", mm.focused)

	mm, _ = step(t, mm, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "beta", mm.focused)

	mm, _ = step(t, mm, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "alpha", mm.focused, "focus wraps around")

	mm, _ = step(t, mm, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "beta", mm.focused, "reverse wraps the other way")

	mm, _ = step(t, mm, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "", mm.focused)
}

func TestModelWidgetPauseToggle(t *testing.T) {
	m, sched, _ := newTestModel(t)

	mm, _ := step(t, m, frameMsg(time.Now()))
	mm, _ = step(t, mm, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "alpha", mm.focused)

	mm, _ = step(t, mm, keyMsg("p"))
	st, ok := sched.Status("alpha")
	require.True(t, ok)
	assert.True(t, st.Paused)
	assert.Equal(t, "user request", st.PauseReason)
	assert.False(t, sched.Suspended(), "focused pause must not suspend the scheduler")

	step(t, mm, keyMsg("p"))
	st, _ = sched.Status("alpha")
	assert.False(t, st.Paused)
}

func TestModelRefreshQueuesFocusedWidget(t *testing.T) {
	m, sched, _ := newTestModel(t)
	// Suspend dispatch so queued work stays observable.
	sched.Pause()

	mm, _ := step(t, m, frameMsg(time.Now()))
	mm, _ = step(t, mm, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "alpha", mm.focused)

	step(t, mm, keyMsg("r"))
	st, ok := sched.Status("alpha")
	require.True(t, ok)
	assert.True(t, st.QueuedUpdate)

	st, _ = sched.Status("beta")
	assert.False(t, st.QueuedUpdate)
}

func TestModelRefreshQueuesAllWhenUnfocused(t *testing.T) {
	m, sched, _ := newTestModel(t)
	sched.Pause()

	mm, _ := step(t, m, frameMsg(time.Now()))
	step(t, mm, keyMsg("r"))

	updates, _ := sched.QueueLengths()
	assert.Equal(t, 2, updates)
}

func TestModelEventDrivesStatusLine(t *testing.T) {
	m, _, _ := newTestModel(t)

	ev := events.Event{Topic: "widget:updated", At: time.Now()}
	mm, cmd := step(t, m, eventMsg(ev))
	assert.Equal(t, "widget:updated", mm.lastTopic)
	require.NotNil(t, cmd, "event receive must re-arm")

	mm, _ = step(t, mm, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, mm.View(), "widget:updated")
}

func TestModelSpinnerAdvances(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(spinner.TickMsg{Time: time.Now()})
	assert.NotNil(t, cmd, "spinner tick must re-arm")
}
