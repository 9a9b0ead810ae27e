package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-zones/internal/airquality"
)

// DefaultInterval is how often sensors drift when no interval is configured.
const DefaultInterval = 3 * time.Second

// Drifter is anything that advances sensor readings by one cycle.
type Drifter interface {
	Drift() airquality.Snapshot
}

// Scheduler periodically drifts the sensor store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	drifter   Drifter
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, drifter Drifter) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// A slow cycle must not overlap the next one.
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		drifter:   drifter,
		interval:  interval,
	}
}

// Start schedules the drift job and starts the underlying scheduler.
// The first cycle runs one interval after Start, not immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(s.runOnce)
	if err != nil {
		return err
	}

	zap.L().Info("scheduler: drift job scheduled", zap.Duration("interval", interval))
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runOnce() {
	snap := s.drifter.Drift()
	zap.L().Debug("scheduler: sensors drifted",
		zap.Uint64("generation", snap.Generation),
		zap.Int("sensors", len(snap.Readings)),
	)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
