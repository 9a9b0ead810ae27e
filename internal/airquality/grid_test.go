package airquality

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridCoord(t *testing.T) {
	g := NewGrid(5)

	x, y := g.Coord(0, 0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	x, y = g.Coord(4, 2)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 0.5, y)

	x, y = NewGrid(1).Coord(0, 0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestGridFromRows_RejectsRagged(t *testing.T) {
	_, err := GridFromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = GridFromRows(nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGridJSONIsArrayOfRows(t *testing.T) {
	g := mustGrid(t, [][]float64{{1, 2}, {3, 4}})

	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[3,4]]`, string(data))

	var decoded Grid
	require.Error(t, json.Unmarshal([]byte(`[[1,2,3],[4,5,6]]`), &decoded))
}

func TestGridStats(t *testing.T) {
	g := mustGrid(t, [][]float64{{1, 5}, {-2, 4}})

	stats := g.Stats()
	assert.Equal(t, -2.0, stats.Min)
	assert.Equal(t, 5.0, stats.Max)
	assert.InDelta(t, 2.0, stats.Mean, 1e-12)

	assert.Equal(t, GridStats{}, Grid{}.Stats())
}

func TestGridRowsAreCopies(t *testing.T) {
	g := mustGrid(t, [][]float64{{1, 2}, {3, 4}})
	rows := g.Rows()
	rows[0][0] = 99

	assert.Equal(t, 1.0, g.At(0, 0))
}
