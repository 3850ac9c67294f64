package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/mosaic/internal/config"
	"github.com/mattjoyce/mosaic/internal/layout"
	"github.com/mattjoyce/mosaic/internal/scheduler"
)

func testTheme() Theme {
	return NewTheme(config.Defaults().Theme)
}

func TestClipLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", clipLine("hello", 10))
	assert.Equal(t, "hel", clipLine("hello", 3))
	assert.Equal(t, "héllo", clipLine("héllo wörld", 5))
	assert.Equal(t, "", clipLine("hello", 0))
}

func TestClipContent(t *testing.T) {
	t.Parallel()

	lines := clipContent("one\ntwo\nthree\nfour", 10, 2)
	assert.Equal(t, []string{"one", "two"}, lines)

	lines = clipContent("0123456789ABCDEF", 10, 3)
	assert.Equal(t, []string{"0123456789"}, lines)

	lines = clipContent("crlf\r\nline", 10, 4)
	assert.Equal(t, []string{"crlf", "line"}, lines)

	assert.Nil(t, clipContent("anything", 0, 4))
	assert.Nil(t, clipContent("anything", 4, 0))
}

func TestRenderBoxDimensions(t *testing.T) {
	t.Parallel()

	box := renderBox(testTheme(), "cpu", "hello", layout.Rect{X: 0, Y: 0, W: 12, H: 5}, false, false)
	lines := strings.Split(box, "\n")
	require.Len(t, lines, 5)
	for _, ln := range lines {
		assert.Equal(t, 12, lipgloss.Width(ln))
	}
	assert.Contains(t, lines[1], "cpu")
	assert.Contains(t, lines[2], "hello")
}

func TestRenderBoxClipsOversizedContent(t *testing.T) {
	t.Parallel()

	content := "l1\nl2\nl3\nl4\nl5\nl6"
	box := renderBox(testTheme(), "w", content, layout.Rect{W: 10, H: 5}, false, false)
	lines := strings.Split(box, "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, box, "l2")
	assert.NotContains(t, box, "l3")

	box = renderBox(testTheme(), "w", "0123456789ABCDEF", layout.Rect{W: 12, H: 4}, false, false)
	assert.Contains(t, box, "0123456789")
	assert.NotContains(t, box, "A")
}

func TestRenderBoxTooSmall(t *testing.T) {
	t.Parallel()

	assert.Empty(t, renderBox(testTheme(), "w", "x", layout.Rect{W: 1, H: 5}, false, false))
	assert.Empty(t, renderBox(testTheme(), "w", "x", layout.Rect{W: 5, H: 1}, false, false))
}

func TestComposeGridSideBySide(t *testing.T) {
	t.Parallel()

	panes := []pane{
		{rect: layout.Rect{X: 0, Y: 0, W: 3, H: 2}, lines: []string{"aaa", "aaa"}},
		{rect: layout.Rect{X: 3, Y: 0, W: 3, H: 2}, lines: []string{"bbb", "bbb"}},
	}
	assert.Equal(t, "aaabbb\naaabbb", composeGrid(6, 2, panes))
}

func TestComposeGridFillsGaps(t *testing.T) {
	t.Parallel()

	panes := []pane{
		{rect: layout.Rect{X: 0, Y: 0, W: 3, H: 1}, lines: []string{"aaa"}},
		{rect: layout.Rect{X: 4, Y: 0, W: 3, H: 1}, lines: []string{"bbb"}},
	}
	assert.Equal(t, "aaa bbb", composeGrid(7, 1, panes))

	// A row with no pane stays blank.
	assert.Equal(t, "aaa bbb\n", composeGrid(7, 2, panes))
}

func TestComposeGridSpanningColumn(t *testing.T) {
	t.Parallel()

	// Left pane spans all four rows; two right panes stack beside it.
	// Ordering must hold per row, not per pane start.
	panes := []pane{
		{rect: layout.Rect{X: 3, Y: 2, W: 3, H: 2}, lines: []string{"C0.", "C1."}},
		{rect: layout.Rect{X: 0, Y: 0, W: 3, H: 4}, lines: []string{"A0.", "A1.", "A2.", "A3."}},
		{rect: layout.Rect{X: 3, Y: 0, W: 3, H: 2}, lines: []string{"B0.", "B1."}},
	}
	want := "A0.B0.\nA1.B1.\nA2.C0.\nA3.C1."
	assert.Equal(t, want, composeGrid(6, 4, panes))
}

func TestRenderPanes(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := layout.New(layout.Config{Rows: 2, Cols: 2}, logger)
	require.NoError(t, err)
	_, err = eng.AddWidget("alpha", layout.Position{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1})
	require.NoError(t, err)
	_, err = eng.AddWidget("beta", layout.Position{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1})
	require.NoError(t, err)
	_, err = eng.AddWidget("gamma", layout.Position{Row: 1, Col: 0, RowSpan: 1, ColSpan: 2})
	require.NoError(t, err)
	eng.SetViewport(40, 10)

	statuses := map[string]scheduler.WidgetStatus{
		"alpha": {Name: "alpha", Visible: true},
		"beta":  {Name: "beta", Paused: true, PauseReason: scheduler.ReasonHidden},
		"gamma": {Name: "gamma", Paused: true, PauseReason: scheduler.ReasonTooManyErrors, Visible: true},
	}
	content := func(name string) string { return "body-" + name }

	panes := renderPanes(eng, statuses, content, "alpha", testTheme())
	require.Len(t, panes, 3)

	var all strings.Builder
	for _, p := range panes {
		all.WriteString(strings.Join(p.lines, "\n"))
		all.WriteString("\n")
	}
	out := all.String()

	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "body-alpha")

	// Hidden widgets keep their frame but drop their content.
	assert.Contains(t, out, "beta (hidden)")
	assert.NotContains(t, out, "body-beta")

	// Isolated widgets keep showing their last content.
	assert.Contains(t, out, "gamma (failing)")
	assert.Contains(t, out, "body-gamma")
}

func TestRenderPanesWithoutViewport(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := layout.New(layout.Config{Rows: 2, Cols: 2}, logger)
	require.NoError(t, err)
	_, err = eng.AddWidget("alpha", layout.Position{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1})
	require.NoError(t, err)

	panes := renderPanes(eng, nil, func(string) string { return "" }, "", testTheme())
	assert.Empty(t, panes)
}
