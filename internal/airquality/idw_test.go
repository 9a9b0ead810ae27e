package airquality

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceReadings() []Reading {
	return []Reading{
		{X: 0.0, Y: 0.0, AQI: 300},
		{X: 1.0, Y: 0.0, AQI: 100},
		{X: 0.0, Y: 1.0, AQI: 50},
		{X: 1.0, Y: 1.0, AQI: 250},
		{X: 0.5, Y: 0.5, AQI: 120},
	}
}

func TestInterpolate_CornersMatchSensorsExactly(t *testing.T) {
	grid, err := Interpolate(referenceReadings(), 2)
	require.NoError(t, err)
	require.Equal(t, 2, grid.N)

	assert.Equal(t, 300.0, grid.At(0, 0))
	assert.Equal(t, 50.0, grid.At(0, 1))
	assert.Equal(t, 100.0, grid.At(1, 0))
	assert.Equal(t, 250.0, grid.At(1, 1))
}

func TestInterpolate_CentreCellMatchesCentreSensor(t *testing.T) {
	grid, err := Interpolate(referenceReadings(), 3)
	require.NoError(t, err)

	assert.Equal(t, 120.0, grid.At(1, 1))
}

func TestInterpolate_FirstCoincidentReadingWins(t *testing.T) {
	readings := []Reading{
		{X: 0.5, Y: 0.5, AQI: 80},
		{X: 0, Y: 0, AQI: 10},
		{X: 0, Y: 0, AQI: 20},
	}
	grid, err := Interpolate(readings, 5)
	require.NoError(t, err)

	assert.Equal(t, 10.0, grid.At(0, 0))
}

func TestInterpolate_StaysWithinInputRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	for trial := 0; trial < 20; trial++ {
		count := 1 + rng.IntN(12)
		readings := make([]Reading, count)
		lo, hi := 1<<30, -1
		for i := range readings {
			readings[i] = Reading{X: rng.Float64(), Y: rng.Float64(), AQI: 30 + rng.IntN(271)}
			lo = min(lo, readings[i].AQI)
			hi = max(hi, readings[i].AQI)
		}

		grid, err := Interpolate(readings, 17)
		require.NoError(t, err)

		for i, v := range grid.Cells {
			// The epsilon in the denominator can pull a value a hair below the minimum.
			assert.GreaterOrEqual(t, v, float64(lo)-1e-6, "trial %d cell %d", trial, i)
			assert.LessOrEqual(t, v, float64(hi), "trial %d cell %d", trial, i)
		}
	}
}

func TestInterpolate_SingleSensorFillsGrid(t *testing.T) {
	grid, err := Interpolate([]Reading{{X: 0.3, Y: 0.7, AQI: 140}}, 8)
	require.NoError(t, err)

	for _, v := range grid.Cells {
		assert.InDelta(t, 140.0, v, 1e-6)
	}
}

func TestInterpolate_ParallelMatchesSerial(t *testing.T) {
	serial := &Interpolator{Power: 2, Epsilon: DefaultEpsilon, Workers: 1}
	parallel := &Interpolator{Power: 2, Epsilon: DefaultEpsilon, Workers: 8}

	a, err := serial.Interpolate(referenceReadings(), 40)
	require.NoError(t, err)
	b, err := parallel.Interpolate(referenceReadings(), 40)
	require.NoError(t, err)

	assert.Equal(t, a.Cells, b.Cells)
}

func TestInterpolate_HigherPowerFavoursNearestSensor(t *testing.T) {
	readings := []Reading{{X: 0, Y: 0, AQI: 300}, {X: 1, Y: 1, AQI: 50}}

	p2, err := (&Interpolator{Power: 2, Epsilon: DefaultEpsilon}).Interpolate(readings, 11)
	require.NoError(t, err)
	p6, err := (&Interpolator{Power: 6, Epsilon: DefaultEpsilon}).Interpolate(readings, 11)
	require.NoError(t, err)

	// Cell [2][2] sits at (0.2, 0.2), much closer to the 300 sensor.
	assert.Greater(t, p6.At(2, 2), p2.At(2, 2))
}

func TestInterpolate_RejectsEmptyReadings(t *testing.T) {
	_, err := Interpolate(nil, 10)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestInterpolate_RejectsBadGridSize(t *testing.T) {
	_, err := Interpolate(referenceReadings(), 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}
