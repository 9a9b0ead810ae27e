package airquality

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
)

// DefaultGridSize is the default grid dimension N.
const DefaultGridSize = 100

// Grid is a square N x N array of cells stored row-major.
// Cell [row][col] maps to the continuous coordinate x = row/(N-1), y = col/(N-1).
type Grid struct {
	N     int
	Cells []float64
}

// NewGrid allocates a zeroed N x N grid.
func NewGrid(n int) Grid {
	return Grid{N: n, Cells: make([]float64, n*n)}
}

// GridFromRows builds a grid from a slice of rows, which must be square.
func GridFromRows(rows [][]float64) (Grid, error) {
	n := len(rows)
	if n == 0 {
		return Grid{}, eris.Wrap(ErrInvalidInput, "grid has no rows")
	}
	g := NewGrid(n)
	for i, row := range rows {
		if len(row) != n {
			return Grid{}, eris.Wrapf(ErrInvalidInput, "grid row %d has %d columns, want %d", i, len(row), n)
		}
		copy(g.Cells[i*n:(i+1)*n], row)
	}
	return g, nil
}

// At returns the value at [row][col].
func (g Grid) At(row, col int) float64 {
	return g.Cells[row*g.N+col]
}

// Set stores v at [row][col].
func (g Grid) Set(row, col int, v float64) {
	g.Cells[row*g.N+col] = v
}

// Coord maps a cell index to its continuous coordinate in the unit square.
func (g Grid) Coord(row, col int) (x, y float64) {
	if g.N <= 1 {
		return 0, 0
	}
	d := float64(g.N - 1)
	return float64(row) / d, float64(col) / d
}

// Rows returns the grid as a freshly allocated slice of rows.
func (g Grid) Rows() [][]float64 {
	rows := make([][]float64, g.N)
	for i := range rows {
		rows[i] = append([]float64(nil), g.Cells[i*g.N:(i+1)*g.N]...)
	}
	return rows
}

// MarshalJSON encodes the grid as an array of rows.
func (g Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

// UnmarshalJSON decodes an array of rows.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := GridFromRows(rows)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// GridStats summarises the values of a grid.
type GridStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Stats computes min, max and mean over every cell. An empty grid yields zero stats.
func (g Grid) Stats() GridStats {
	if len(g.Cells) == 0 {
		return GridStats{}
	}
	return GridStats{
		Min:  floats.Min(g.Cells),
		Max:  floats.Max(g.Cells),
		Mean: floats.Sum(g.Cells) / float64(len(g.Cells)),
	}
}
