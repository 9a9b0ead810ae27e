package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/air-quality-zones/internal/airquality"
)

type countingDrifter struct {
	calls atomic.Int64
}

func (d *countingDrifter) Drift() airquality.Snapshot {
	n := d.calls.Add(1)
	return airquality.Snapshot{Generation: uint64(n)}
}

func TestSchedulerDriftsPeriodically(t *testing.T) {
	d := &countingDrifter{}
	s := New(20*time.Millisecond, d)
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return d.calls.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	stopped := d.calls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, d.calls.Load(), stopped+1)
}

func TestSchedulerWaitsForFirstInterval(t *testing.T) {
	d := &countingDrifter{}
	s := New(time.Hour, d)
	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), d.calls.Load())
}
