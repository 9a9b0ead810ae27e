package airquality

import (
	"math"
	"runtime"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPower is the IDW distance exponent.
	DefaultPower = 2.0
	// DefaultEpsilon guards denominators against zero.
	DefaultEpsilon = 1e-9
)

// Interpolator estimates a dense grid from scattered readings using
// Inverse Distance Weighting.
type Interpolator struct {
	Power   float64
	Epsilon float64
	// Workers bounds the number of rows computed concurrently. Zero means GOMAXPROCS.
	Workers int
}

// DefaultInterpolator returns an interpolator with power 2 and epsilon 1e-9.
func DefaultInterpolator() *Interpolator {
	return &Interpolator{
		Power:   DefaultPower,
		Epsilon: DefaultEpsilon,
	}
}

// Interpolate runs the default interpolator.
func Interpolate(readings []Reading, n int) (Grid, error) {
	return DefaultInterpolator().Interpolate(readings, n)
}

// Interpolate builds an n x n grid from readings.
//
// A cell that coincides exactly with a reading takes that reading's value; when
// several readings share the position the first one in slice order wins. Every
// other cell is sum(w*v) / (sum(w) + eps) with w = 1/d^power.
func (ip *Interpolator) Interpolate(readings []Reading, n int) (Grid, error) {
	if len(readings) == 0 {
		return Grid{}, eris.Wrap(ErrInvalidInput, "interpolate: no sensor readings")
	}
	if n < 1 {
		return Grid{}, eris.Wrapf(ErrInvalidInput, "interpolate: grid size %d", n)
	}

	points := make([]orb.Point, len(readings))
	values := make([]float64, len(readings))
	for k, r := range readings {
		points[k] = r.Point()
		values[k] = float64(r.AQI)
	}

	workers := ip.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	grid := NewGrid(n)

	var g errgroup.Group
	g.SetLimit(workers)
	for row := 0; row < n; row++ {
		g.Go(func() error {
			for col := 0; col < n; col++ {
				x, y := grid.Coord(row, col)
				grid.Set(row, col, ip.estimate(orb.Point{x, y}, points, values))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Grid{}, err
	}

	return grid, nil
}

func (ip *Interpolator) estimate(target orb.Point, points []orb.Point, values []float64) float64 {
	var num, den float64
	for k, p := range points {
		d := planar.Distance(target, p)
		if d == 0 {
			return values[k]
		}
		w := 1 / math.Pow(d, ip.Power)
		num += w * values[k]
		den += w
	}
	return num / (den + ip.Epsilon)
}
