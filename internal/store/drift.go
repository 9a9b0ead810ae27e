package store

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/i474232898/air-quality-zones/internal/airquality"
	"github.com/i474232898/air-quality-zones/internal/common"
)

// DriftOptions bounds the random walk applied to sensor values.
type DriftOptions struct {
	// MaxStep is the largest absolute change per cycle; deltas are drawn
	// uniformly from [-MaxStep, MaxStep].
	MaxStep int
	MinAQI  int
	MaxAQI  int
}

// DefaultDriftOptions returns steps of {-2..2} clamped to [30, 300].
func DefaultDriftOptions() DriftOptions {
	return DriftOptions{
		MaxStep: 2,
		MinAQI:  30,
		MaxAQI:  300,
	}
}

// Validate checks that the options describe a usable walk.
func (o DriftOptions) Validate() error {
	if o.MaxStep < 0 {
		return eris.Wrapf(airquality.ErrInvalidInput, "drift step %d is negative", o.MaxStep)
	}
	if o.MinAQI > o.MaxAQI {
		return eris.Wrapf(airquality.ErrInvalidInput, "drift bounds [%d, %d] are inverted", o.MinAQI, o.MaxAQI)
	}
	return nil
}

// DriftReadings returns a new slice where every value moved by an independent
// uniform step and was clamped to the configured bounds. Positions are copied unchanged.
func DriftReadings(readings []airquality.Reading, rng *rand.Rand, opts DriftOptions) []airquality.Reading {
	next := make([]airquality.Reading, len(readings))
	span := 2*opts.MaxStep + 1
	for i, r := range readings {
		delta := rng.IntN(span) - opts.MaxStep
		next[i] = airquality.Reading{
			X:   r.X,
			Y:   r.Y,
			AQI: common.Clamp(r.AQI+delta, opts.MinAQI, opts.MaxAQI),
		}
	}
	return next
}

// DefaultReadings returns the five reference sensors: the four corners and the centre.
func DefaultReadings() []airquality.Reading {
	return []airquality.Reading{
		{X: 0.0, Y: 0.0, AQI: 300},
		{X: 1.0, Y: 0.0, AQI: 100},
		{X: 0.0, Y: 1.0, AQI: 50},
		{X: 1.0, Y: 1.0, AQI: 250},
		{X: 0.5, Y: 0.5, AQI: 120},
	}
}
