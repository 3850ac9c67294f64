package layout

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Position is a widget's placement on the logical grid.
type Position struct {
	Row     int `json:"row" yaml:"row"`
	Col     int `json:"col" yaml:"col"`
	RowSpan int `json:"rowSpan" yaml:"rowSpan"`
	ColSpan int `json:"colSpan" yaml:"colSpan"`
}

func (p Position) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", p.Row, p.Col, p.RowSpan, p.ColSpan)
}

// Breakpoints are the viewport widths (inclusive upper bounds) that
// select the mobile and tablet grids in responsive mode.
type Breakpoints struct {
	Mobile int
	Tablet int
}

var DefaultBreakpoints = Breakpoints{Mobile: 768, Tablet: 1024}

// Config sets up an Engine.
type Config struct {
	Rows        int
	Cols        int
	AutoLayout  bool
	Responsive  bool
	Breakpoints Breakpoints
}

// Engine owns widget geometry: the position map is the single source of
// truth. Stored positions are always in the configured base grid;
// responsive mode only changes how they project onto the viewport.
type Engine struct {
	mu sync.RWMutex

	baseRows int
	baseCols int
	rows     int // effective, after responsive adjustment
	cols     int

	autoLayout  bool
	responsive  bool
	breakpoints Breakpoints

	positions map[string]Position

	viewportW int
	viewportH int

	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.Rows < 1 || cfg.Cols < 1 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", cfg.Rows, cfg.Cols)
	}
	bp := cfg.Breakpoints
	if bp.Mobile <= 0 {
		bp.Mobile = DefaultBreakpoints.Mobile
	}
	if bp.Tablet <= bp.Mobile {
		bp.Tablet = DefaultBreakpoints.Tablet
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		baseRows:    cfg.Rows,
		baseCols:    cfg.Cols,
		rows:        cfg.Rows,
		cols:        cfg.Cols,
		autoLayout:  cfg.AutoLayout,
		responsive:  cfg.Responsive,
		breakpoints: bp,
		positions:   make(map[string]Position),
		logger:      logger,
	}, nil
}

// AddWidget places a widget. spec may be nil (auto-layout picks a 1x1
// slot), an ordered 4-tuple, a Position, or a named-field map. An
// explicit position is bounds-checked and overlap-checked; on conflict
// with auto-layout enabled the engine relocates, then shrinks by
// halving both spans, and fails with a LayoutError only when the
// shrunken placement still cannot fit.
func (e *Engine) AddWidget(id string, spec any) (Position, error) {
	pos, explicit, err := normalizePosition(spec)
	if err != nil {
		return Position{}, &LayoutError{Widget: id, Reason: err.Error()}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.positions[id]; ok {
		return Position{}, &LayoutError{Widget: id, Reason: "already placed"}
	}

	if !explicit {
		return e.autoPlaceLocked(id, pos)
	}

	if reason := e.boundsViolation(pos); reason != "" {
		return Position{}, &LayoutError{Widget: id, Reason: reason}
	}

	other, conflict := e.firstOverlapLocked(id, pos)
	if !conflict {
		e.positions[id] = pos
		return pos, nil
	}

	if !e.autoLayout {
		return Position{}, &LayoutError{
			Widget: id,
			Reason: fmt.Sprintf("position %s overlaps widget %s", pos, other),
		}
	}
	return e.resolveConflictLocked(id, pos)
}

// autoPlaceLocked scans for a free slot of the requested size, shrinking
// once by halving when nothing fits.
func (e *Engine) autoPlaceLocked(id string, want Position) (Position, error) {
	if !e.autoLayout {
		return Position{}, &LayoutError{Widget: id, Reason: "no position given and auto-layout is disabled"}
	}
	if want.RowSpan < 1 {
		want.RowSpan = 1
	}
	if want.ColSpan < 1 {
		want.ColSpan = 1
	}
	return e.resolveConflictLocked(id, want)
}

// resolveConflictLocked finds a non-overlapping slot for the requested
// size, then for the halved size. The shrink step is lossy; a placement
// that still overlaps is rejected rather than stacked.
func (e *Engine) resolveConflictLocked(id string, want Position) (Position, error) {
	if slot, ok := e.findSlotLocked(id, want.RowSpan, want.ColSpan); ok {
		if slot != want {
			e.logger.Debug("widget relocated", "widget", id, "requested", want.String(), "placed", slot.String())
		}
		e.positions[id] = slot
		return slot, nil
	}

	halved := Position{
		RowSpan: max(1, want.RowSpan/2),
		ColSpan: max(1, want.ColSpan/2),
	}
	if halved.RowSpan != want.RowSpan || halved.ColSpan != want.ColSpan {
		if slot, ok := e.findSlotLocked(id, halved.RowSpan, halved.ColSpan); ok {
			e.logger.Warn("widget shrunk to fit",
				"widget", id,
				"requested", fmt.Sprintf("%dx%d", want.RowSpan, want.ColSpan),
				"placed", slot.String())
			e.positions[id] = slot
			return slot, nil
		}
	}

	return Position{}, &LayoutError{
		Widget: id,
		Reason: fmt.Sprintf("no free region for %dx%d (or halved) placement", want.RowSpan, want.ColSpan),
	}
}

// findSlotLocked scans row-major for the first placement of the given
// size that overlaps nothing.
func (e *Engine) findSlotLocked(id string, rowSpan, colSpan int) (Position, bool) {
	if rowSpan > e.baseRows || colSpan > e.baseCols {
		return Position{}, false
	}
	for row := 0; row+rowSpan <= e.baseRows; row++ {
		for col := 0; col+colSpan <= e.baseCols; col++ {
			candidate := Position{Row: row, Col: col, RowSpan: rowSpan, ColSpan: colSpan}
			if _, conflict := e.firstOverlapLocked(id, candidate); !conflict {
				return candidate, true
			}
		}
	}
	return Position{}, false
}

// MoveWidget repositions an existing widget. The new position must be
// in bounds and overlap-free; moving never triggers auto-relocation.
func (e *Engine) MoveWidget(id string, spec any) (Position, error) {
	pos, explicit, err := normalizePosition(spec)
	if err != nil {
		return Position{}, &LayoutError{Widget: id, Reason: err.Error()}
	}
	if !explicit {
		return Position{}, &LayoutError{Widget: id, Reason: "move requires an explicit position"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.positions[id]; !ok {
		return Position{}, &LayoutError{Widget: id, Reason: "not placed"}
	}
	if reason := e.boundsViolation(pos); reason != "" {
		return Position{}, &LayoutError{Widget: id, Reason: reason}
	}
	if other, conflict := e.firstOverlapLocked(id, pos); conflict {
		return Position{}, &LayoutError{
			Widget: id,
			Reason: fmt.Sprintf("position %s overlaps widget %s", pos, other),
		}
	}

	e.positions[id] = pos
	return pos, nil
}

// RemoveWidget drops a widget from the grid. False if it was not placed.
func (e *Engine) RemoveWidget(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.positions[id]; !ok {
		return false
	}
	delete(e.positions, id)
	return true
}

// Position returns the stored placement for id.
func (e *Engine) Position(id string) (Position, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pos, ok := e.positions[id]
	return pos, ok
}

// Widgets lists placed widget ids, sorted.
func (e *Engine) Widgets() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.positions))
	for id := range e.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Positions returns a snapshot of the position map.
func (e *Engine) Positions() map[string]Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]Position, len(e.positions))
	for id, pos := range e.positions {
		out[id] = pos
	}
	return out
}

// Grid returns the effective grid dimensions (after any responsive
// adjustment).
func (e *Engine) Grid() (rows, cols int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rows, e.cols
}

func (e *Engine) boundsViolation(pos Position) string {
	switch {
	case pos.Row < 0 || pos.Col < 0:
		return fmt.Sprintf("position %s has negative origin", pos)
	case pos.RowSpan < 1 || pos.ColSpan < 1:
		return fmt.Sprintf("position %s has span below 1", pos)
	case pos.Row+pos.RowSpan > e.baseRows:
		return fmt.Sprintf("position %s exceeds %d grid rows", pos, e.baseRows)
	case pos.Col+pos.ColSpan > e.baseCols:
		return fmt.Sprintf("position %s exceeds %d grid cols", pos, e.baseCols)
	}
	return ""
}

// firstOverlapLocked reports the first placed widget (sorted by id, for
// determinism) whose region overlaps pos, excluding self.
func (e *Engine) firstOverlapLocked(self string, pos Position) (string, bool) {
	var ids []string
	for id := range e.positions {
		if id != self {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		if Overlaps(pos, e.positions[id]) {
			return id, true
		}
	}
	return "", false
}

// Overlaps reports whether two grid rectangles intersect. Rectangles
// are disjoint exactly when one lies entirely left of, right of, above,
// or below the other.
func Overlaps(a, b Position) bool {
	if a.Col+a.ColSpan <= b.Col || b.Col+b.ColSpan <= a.Col {
		return false
	}
	if a.Row+a.RowSpan <= b.Row || b.Row+b.RowSpan <= a.Row {
		return false
	}
	return true
}

// normalizePosition turns the accepted position shapes into a Position.
// The bool reports whether the caller pinned an origin; a nil spec or a
// spans-only map leaves placement to the engine.
func normalizePosition(spec any) (Position, bool, error) {
	switch v := spec.(type) {
	case nil:
		return Position{}, false, nil
	case Position:
		return v, true, nil
	case *Position:
		if v == nil {
			return Position{}, false, nil
		}
		return *v, true, nil
	case [4]int:
		return Position{Row: v[0], Col: v[1], RowSpan: v[2], ColSpan: v[3]}, true, nil
	case *[4]int:
		if v == nil {
			return Position{}, false, nil
		}
		return Position{Row: v[0], Col: v[1], RowSpan: v[2], ColSpan: v[3]}, true, nil
	case []int:
		if len(v) != 4 {
			return Position{}, false, fmt.Errorf("position tuple needs 4 elements, got %d", len(v))
		}
		return Position{Row: v[0], Col: v[1], RowSpan: v[2], ColSpan: v[3]}, true, nil
	case []any:
		if len(v) != 4 {
			return Position{}, false, fmt.Errorf("position tuple needs 4 elements, got %d", len(v))
		}
		nums := make([]int, 4)
		for i, el := range v {
			n, ok := asInt(el)
			if !ok {
				return Position{}, false, fmt.Errorf("position tuple element %d is not a number", i)
			}
			nums[i] = n
		}
		return Position{Row: nums[0], Col: nums[1], RowSpan: nums[2], ColSpan: nums[3]}, true, nil
	case map[string]any:
		pos := Position{RowSpan: 1, ColSpan: 1}
		explicit := false
		if n, ok := intField(v, "row"); ok {
			pos.Row = n
			explicit = true
		}
		if n, ok := intField(v, "col"); ok {
			pos.Col = n
			explicit = true
		}
		if n, ok := intField(v, "rowSpan"); ok {
			pos.RowSpan = n
		}
		if n, ok := intField(v, "colSpan"); ok {
			pos.ColSpan = n
		}
		return pos, explicit, nil
	default:
		return Position{}, false, fmt.Errorf("unsupported position type %T", spec)
	}
}

func intField(m map[string]any, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return asInt(v)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
