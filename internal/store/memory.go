package store

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/atomic"

	"github.com/i474232898/air-quality-zones/internal/airquality"
	"github.com/i474232898/air-quality-zones/internal/common"
)

// SensorStore is a concurrency-safe in-memory holder of the sensor collection.
//
// Readers load an immutable snapshot through an atomic pointer. Drift builds the
// next snapshot off to the side and publishes it with a single swap, so a reader
// sees either the previous or the next collection in full.
type SensorStore struct {
	// mu serialises writers; readers never take it.
	mu      sync.Mutex
	current *atomic.Pointer[airquality.Snapshot]

	opts DriftOptions
	rng  *rand.Rand
	now  func() time.Time
}

// NewSensorStore creates a store holding initial. Positions must lie in the unit
// square; AQI values are clamped to the drift bounds so every published snapshot,
// generation 0 included, stays within them.
func NewSensorStore(initial []airquality.Reading, opts DriftOptions, rng *rand.Rand) (*SensorStore, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	readings := make([]airquality.Reading, len(initial))
	for i, r := range initial {
		if !r.InUnitSquare() {
			return nil, eris.Wrapf(airquality.ErrInvalidInput, "sensor %d at (%g, %g) is outside the unit square", i, r.X, r.Y)
		}
		r.AQI = common.Clamp(r.AQI, opts.MinAQI, opts.MaxAQI)
		readings[i] = r
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := &SensorStore{
		opts: opts,
		rng:  rng,
		now:  time.Now,
	}
	s.current = atomic.NewPointer(&airquality.Snapshot{
		Readings:  readings,
		UpdatedAt: s.now().UTC(),
	})
	return s, nil
}

// Snapshot returns a copy of the currently published snapshot. It never fails.
func (s *SensorStore) Snapshot(_ context.Context) (airquality.Snapshot, error) {
	return s.Latest(), nil
}

// Latest returns a copy of the currently published snapshot.
func (s *SensorStore) Latest() airquality.Snapshot {
	snap := *s.current.Load()
	snap.Readings = append([]airquality.Reading(nil), snap.Readings...)
	return snap
}

// Drift applies one random-walk cycle and publishes the result.
func (s *SensorStore) Drift() airquality.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	next := &airquality.Snapshot{
		Readings:   DriftReadings(prev.Readings, s.rng, s.opts),
		Generation: prev.Generation + 1,
		UpdatedAt:  s.now().UTC(),
	}
	s.current.Store(next)

	out := *next
	out.Readings = append([]airquality.Reading(nil), next.Readings...)
	return out
}

// Len returns the number of sensors. The count is fixed for the store's lifetime.
func (s *SensorStore) Len() int {
	return len(s.current.Load().Readings)
}
