package layout

// Rect is a region in viewport units (terminal cells for the TUI).
type Rect struct {
	X int
	Y int
	W int
	H int
}

// SetViewport records the viewport size and recomputes the effective
// grid.
func (e *Engine) SetViewport(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewportW = width
	e.viewportH = height
	e.updateLocked()
}

// Update recomputes the effective grid from the current viewport. In
// responsive mode the column count narrows per breakpoint before cell
// dimensions are derived; stored positions are untouched, so growing
// the viewport restores the configured grid.
func (e *Engine) Update() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updateLocked()
}

func (e *Engine) updateLocked() {
	rows, cols := e.baseRows, e.baseCols
	if e.responsive && e.viewportW > 0 {
		switch {
		case e.viewportW <= e.breakpoints.Mobile:
			cols = 1
		case e.viewportW <= e.breakpoints.Tablet:
			cols = (e.baseCols + 1) / 2
		}
	}
	if rows != e.rows || cols != e.cols {
		e.logger.Debug("grid adjusted", "rows", rows, "cols", cols, "viewport_width", e.viewportW)
	}
	e.rows = rows
	e.cols = cols
}

// Region maps a widget's logical position to viewport units. Scaled
// division keeps adjacent regions flush with no rounding gaps; in a
// narrowed responsive grid, column coordinates are first projected onto
// the effective column count.
func (e *Engine) Region(id string) (Rect, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pos, ok := e.positions[id]
	if !ok || e.viewportW <= 0 || e.viewportH <= 0 {
		return Rect{}, false
	}

	colStart := pos.Col * e.cols / e.baseCols
	colEnd := (pos.Col + pos.ColSpan) * e.cols / e.baseCols
	if colEnd <= colStart {
		colEnd = colStart + 1
	}

	x1 := colStart * e.viewportW / e.cols
	x2 := colEnd * e.viewportW / e.cols
	y1 := pos.Row * e.viewportH / e.rows
	y2 := (pos.Row + pos.RowSpan) * e.viewportH / e.rows

	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}, true
}
