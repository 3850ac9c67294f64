package tui

import (
	"sort"
	"strings"

	"github.com/mattjoyce/mosaic/internal/layout"
	"github.com/mattjoyce/mosaic/internal/scheduler"
)

// pane is one widget box pre-rendered at its region size.
type pane struct {
	rect  layout.Rect
	lines []string
}

// renderPanes builds one pane per placed widget. Regions too small for
// a border are skipped; the widget reappears when the viewport grows.
func renderPanes(eng *layout.Engine, statuses map[string]scheduler.WidgetStatus, content func(string) string, focused string, theme Theme) []pane {
	var panes []pane
	for _, name := range eng.Widgets() {
		rect, ok := eng.Region(name)
		if !ok || rect.W < 2 || rect.H < 2 {
			continue
		}

		st, tracked := statuses[name]
		failing := tracked && st.PauseReason == scheduler.ReasonTooManyErrors
		title := name
		body := content(name)
		switch {
		case failing:
			title += " (failing)"
		case tracked && !st.Visible:
			title += " (hidden)"
			body = ""
		case tracked && st.Paused:
			title += " (paused)"
		}

		box := renderBox(theme, title, body, rect, name == focused, failing)
		panes = append(panes, pane{rect: rect, lines: strings.Split(box, "\n")})
	}
	return panes
}

// renderBox draws a widget frame: a title row, then clipped content,
// wrapped in a border picked by widget state. The result is exactly
// rect.W by rect.H cells.
func renderBox(theme Theme, title, content string, rect layout.Rect, focused, failing bool) string {
	if rect.W < 2 || rect.H < 2 {
		return ""
	}
	innerW, innerH := rect.W-2, rect.H-2

	var lines []string
	if innerH > 0 && innerW > 0 {
		lines = append(lines, theme.Title.Render(clipLine(title, innerW)))
		lines = append(lines, clipContent(content, innerW, innerH-1)...)
	}

	border := theme.Border
	switch {
	case failing:
		border = theme.BorderError
	case focused:
		border = theme.BorderFocus
	}
	return border.Width(innerW).Height(innerH).Render(strings.Join(lines, "\n"))
}

// composeGrid assembles panes into a full frame. The layout engine
// guarantees regions never overlap, so each terminal row is a
// left-to-right concatenation of box slices with space-filled gaps.
func composeGrid(width, height int, panes []pane) string {
	ordered := make([]pane, len(panes))
	copy(ordered, panes)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].rect.X != ordered[j].rect.X {
			return ordered[i].rect.X < ordered[j].rect.X
		}
		return ordered[i].rect.Y < ordered[j].rect.Y
	})

	rows := make([]string, height)
	for y := 0; y < height; y++ {
		var b strings.Builder
		x := 0
		for _, p := range ordered {
			if y < p.rect.Y || y >= p.rect.Y+p.rect.H || p.rect.X < x {
				continue
			}
			if idx := y - p.rect.Y; idx < len(p.lines) {
				if p.rect.X > x {
					b.WriteString(strings.Repeat(" ", p.rect.X-x))
				}
				b.WriteString(p.lines[idx])
				x = p.rect.X + p.rect.W
			}
		}
		rows[y] = b.String()
	}
	return strings.Join(rows, "\n")
}

// clipContent fits plain text into a width-by-height cell box. Widget
// content is clipped before styling so oversized output cannot distort
// the frame.
func clipContent(content string, width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = clipLine(strings.TrimSuffix(ln, "\r"), width)
	}
	return out
}

func clipLine(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
