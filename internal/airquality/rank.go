package airquality

import (
	"container/heap"
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// DefaultTopK is the number of zones returned when none is requested.
const DefaultTopK = 5

const weightTolerance = 1e-6

// Weights controls how the normalised AQI and population values are combined.
// score = AQI*aqiNorm + Population*popNorm.
type Weights struct {
	AQI        float64 `json:"aqi"`
	Population float64 `json:"population"`
}

// DefaultWeights returns (0.6, 0.4).
func DefaultWeights() Weights {
	return Weights{AQI: 0.6, Population: 0.4}
}

// Validate checks that both weights are non-negative and sum to one.
func (w Weights) Validate() error {
	if w.AQI < 0 || w.Population < 0 || math.IsNaN(w.AQI) || math.IsNaN(w.Population) {
		return eris.Wrapf(ErrInvalidInput, "weights must be non-negative, got (%g, %g)", w.AQI, w.Population)
	}
	if math.Abs(w.AQI+w.Population-1) > weightTolerance {
		return eris.Wrapf(ErrInvalidInput, "weights must sum to 1, got %g", w.AQI+w.Population)
	}
	return nil
}

// RankOptions configures Rank.
type RankOptions struct {
	Weights Weights
	// TopK is the number of cells returned. Values <= 0 or larger than the
	// cell count return every cell.
	TopK    int
	Epsilon float64
}

// DefaultRankOptions returns weights (0.6, 0.4), top 5 and epsilon 1e-9.
func DefaultRankOptions() RankOptions {
	return RankOptions{
		Weights: DefaultWeights(),
		TopK:    DefaultTopK,
		Epsilon: DefaultEpsilon,
	}
}

// Rank normalises both grids to [0,1] by their own min and max, scores every
// cell and returns the highest scoring cells ordered by score descending, then
// row ascending, then col ascending.
//
// A uniform grid normalises to exactly zero everywhere.
func Rank(aqi, pop Grid, opts RankOptions) ([]PriorityCell, error) {
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if aqi.N != pop.N || len(aqi.Cells) != len(pop.Cells) {
		return nil, eris.Wrapf(ErrInvalidInput, "grid dimension mismatch: aqi %d, population %d", aqi.N, pop.N)
	}
	if len(aqi.Cells) != aqi.N*aqi.N {
		return nil, eris.Wrapf(ErrInvalidInput, "grid has %d cells, want %d", len(aqi.Cells), aqi.N*aqi.N)
	}
	total := len(aqi.Cells)
	if total == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "rank: empty grid")
	}

	aqiMin, aqiMax := math.Inf(1), math.Inf(-1)
	popMin, popMax := math.Inf(1), math.Inf(-1)
	for i := 0; i < total; i++ {
		aqiMin = math.Min(aqiMin, aqi.Cells[i])
		aqiMax = math.Max(aqiMax, aqi.Cells[i])
		popMin = math.Min(popMin, pop.Cells[i])
		popMax = math.Max(popMax, pop.Cells[i])
	}

	eps := opts.Epsilon
	aqiSpan := aqiMax - aqiMin + eps
	popSpan := popMax - popMin + eps

	k := opts.TopK
	if k <= 0 || k > total {
		k = total
	}

	h := make(cellHeap, 0, k)
	for i := 0; i < total; i++ {
		aqiNorm := normalize(aqi.Cells[i], aqiMin, aqiSpan)
		popNorm := normalize(pop.Cells[i], popMin, popSpan)
		c := PriorityCell{
			Row:   i / aqi.N,
			Col:   i % aqi.N,
			Score: opts.Weights.AQI*aqiNorm + opts.Weights.Population*popNorm,
		}

		if len(h) < k {
			heap.Push(&h, c)
			continue
		}
		if ranksBefore(c, h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	out := []PriorityCell(h)
	sort.Slice(out, func(i, j int) bool { return ranksBefore(out[i], out[j]) })
	return out, nil
}

// normalize returns 0 for a degenerate span so a uniform grid never yields NaN.
func normalize(v, lo, span float64) float64 {
	if span == 0 {
		return 0
	}
	return (v - lo) / span
}

// ranksBefore is the total order of the ranking: score descending, then row, then col.
func ranksBefore(a, b PriorityCell) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

// cellHeap is a min-heap under the ranking order: the root is the weakest kept cell.
type cellHeap []PriorityCell

func (h cellHeap) Len() int           { return len(h) }
func (h cellHeap) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h cellHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *cellHeap) Push(x any) { *h = append(*h, x.(PriorityCell)) }

func (h *cellHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
