package layout

import "sort"

// Conflict is one pairwise overlap between placed widgets.
type Conflict struct {
	A string
	B string
}

// FindConflicts enumerates every pairwise overlap in a position map,
// ordered lexicographically. Works on configured placements as well as
// live engine state.
func FindConflicts(positions map[string]Position) []Conflict {
	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Conflict
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if Overlaps(positions[ids[i]], positions[ids[j]]) {
				out = append(out, Conflict{A: ids[i], B: ids[j]})
			}
		}
	}
	return out
}

// Conflicts enumerates pairwise overlaps currently present in the
// engine, regardless of how the widgets came to be placed.
func (e *Engine) Conflicts() []Conflict {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return FindConflicts(e.positions)
}

// Utilization reports occupied cells over total cells in the base grid.
// Cells claimed by more than one widget count once.
func (e *Engine) Utilization() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := e.baseRows * e.baseCols
	if total == 0 {
		return 0
	}

	occupied := make(map[int]bool)
	for _, pos := range e.positions {
		for r := pos.Row; r < pos.Row+pos.RowSpan && r < e.baseRows; r++ {
			for c := pos.Col; c < pos.Col+pos.ColSpan && c < e.baseCols; c++ {
				occupied[r*e.baseCols+c] = true
			}
		}
	}
	return float64(len(occupied)) / float64(total)
}
