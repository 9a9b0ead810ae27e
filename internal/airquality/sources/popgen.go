package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/air-quality-zones/internal/airquality"
)

// PopulationOptions shapes a synthetic population grid.
type PopulationOptions struct {
	// Settlements is the number of Gaussian population centres.
	Settlements int
	// PeakDensity is the maximum density at a settlement centre.
	PeakDensity float64
	// Baseline is the rural density added everywhere.
	Baseline float64
	// MinRadius and MaxRadius bound each settlement's spread in unit-square coordinates.
	MinRadius float64
	MaxRadius float64
}

// DefaultPopulationOptions returns a handful of towns on a sparse rural background.
func DefaultPopulationOptions() PopulationOptions {
	return PopulationOptions{
		Settlements: 4,
		PeakDensity: 1000,
		Baseline:    5,
		MinRadius:   0.05,
		MaxRadius:   0.2,
	}
}

type settlement struct {
	x, y, radius, peak float64
}

// GeneratePopulation builds an n x n grid of non-negative densities.
func GeneratePopulation(n int, rng *rand.Rand, opts PopulationOptions) (airquality.Grid, error) {
	if n < 1 {
		return airquality.Grid{}, eris.Wrapf(airquality.ErrInvalidInput, "popgen: grid size %d", n)
	}
	if opts.MaxRadius < opts.MinRadius || opts.MinRadius <= 0 {
		return airquality.Grid{}, eris.Wrapf(airquality.ErrInvalidInput,
			"popgen: radius range [%g, %g]", opts.MinRadius, opts.MaxRadius)
	}
	if opts.Settlements < 0 || opts.PeakDensity < 0 || opts.Baseline < 0 {
		return airquality.Grid{}, eris.Wrapf(airquality.ErrInvalidInput,
			"popgen: settlements %d, peak %g, baseline %g must not be negative",
			opts.Settlements, opts.PeakDensity, opts.Baseline)
	}

	towns := make([]settlement, opts.Settlements)
	for i := range towns {
		towns[i] = settlement{
			x:      rng.Float64(),
			y:      rng.Float64(),
			radius: opts.MinRadius + rng.Float64()*(opts.MaxRadius-opts.MinRadius),
			peak:   opts.PeakDensity * (0.3 + 0.7*rng.Float64()),
		}
	}

	grid := airquality.NewGrid(n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			x, y := grid.Coord(row, col)
			v := opts.Baseline
			for _, t := range towns {
				dx, dy := x-t.x, y-t.y
				v += t.peak * math.Exp(-(dx*dx+dy*dy)/(2*t.radius*t.radius))
			}
			grid.Set(row, col, math.Max(0, math.Round(v)))
		}
	}
	return grid, nil
}

// WriteDatasets generates count datasets and writes them as population_<i>.json into dir.
func WriteDatasets(ctx context.Context, dir string, count, n int, seed uint64, opts PopulationOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "popgen: create %s", dir)
	}

	paths := make([]string, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			grid, err := GeneratePopulation(n, rng, opts)
			if err != nil {
				return err
			}
			data, err := json.Marshal(grid)
			if err != nil {
				return eris.Wrap(err, "popgen: encode")
			}
			path := filepath.Join(dir, fmt.Sprintf("population_%d.json", i+1))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return eris.Wrapf(err, "popgen: write %s", path)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
