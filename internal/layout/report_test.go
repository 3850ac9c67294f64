package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConflicts(t *testing.T) {
	positions := map[string]Position{
		"a": {0, 0, 2, 2},
		"b": {1, 1, 2, 2},
		"c": {4, 4, 1, 1},
	}
	got := FindConflicts(positions)
	assert.Equal(t, []Conflict{{A: "a", B: "b"}}, got)
}

func TestFindConflictsMultiplePairs(t *testing.T) {
	positions := map[string]Position{
		"a": {0, 0, 4, 4},
		"b": {1, 1, 2, 2},
		"c": {3, 3, 3, 3},
	}
	got := FindConflicts(positions)
	assert.Equal(t, []Conflict{
		{A: "a", B: "b"},
		{A: "a", B: "c"},
	}, got)
}

func TestEngineConflictsEmptyAfterValidation(t *testing.T) {
	e := newEngine(t, 12, 12, true)
	_, err := e.AddWidget("a", Position{0, 0, 6, 6})
	require.NoError(t, err)
	_, err = e.AddWidget("b", Position{0, 0, 6, 6})
	require.NoError(t, err)

	assert.Empty(t, e.Conflicts(), "placement never admits overlap")
}

func TestUtilization(t *testing.T) {
	e := newEngine(t, 12, 12, false)
	assert.Zero(t, e.Utilization())

	_, err := e.AddWidget("a", Position{0, 0, 6, 6})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, e.Utilization(), 1e-9)

	_, err = e.AddWidget("b", Position{6, 6, 6, 6})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, e.Utilization(), 1e-9)

	e.RemoveWidget("a")
	assert.InDelta(t, 0.25, e.Utilization(), 1e-9)
}

func TestUtilizationCountsSharedCellsOnce(t *testing.T) {
	positions := map[string]Position{
		"a": {0, 0, 2, 2},
		"b": {1, 1, 2, 2},
	}
	e := newEngine(t, 4, 4, false)
	e.positions = positions

	// 2x2 + 2x2 overlapping on one cell = 7 distinct cells of 16.
	assert.InDelta(t, 7.0/16.0, e.Utilization(), 1e-9)
}
