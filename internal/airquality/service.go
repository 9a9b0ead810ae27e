package airquality

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ServiceConfig holds the tunables of the request pipeline.
type ServiceConfig struct {
	GridSize     int
	Interpolator *Interpolator
	Rank         RankOptions
}

// Service runs the pipeline behind every request:
// sensor snapshot -> interpolation -> population sample -> ranking.
type Service struct {
	sensors    SensorSource
	population PopulationSource
	cfg        ServiceConfig
	now        func() time.Time
}

// NewService creates a new Service. Zero-valued config fields fall back to defaults.
func NewService(sensors SensorSource, population PopulationSource, cfg ServiceConfig) *Service {
	if cfg.GridSize <= 0 {
		cfg.GridSize = DefaultGridSize
	}
	if cfg.Interpolator == nil {
		cfg.Interpolator = DefaultInterpolator()
	}
	if cfg.Rank.Weights == (Weights{}) {
		cfg.Rank.Weights = DefaultWeights()
	}
	if cfg.Rank.TopK == 0 {
		cfg.Rank.TopK = DefaultTopK
	}
	if cfg.Rank.Epsilon == 0 {
		cfg.Rank.Epsilon = DefaultEpsilon
	}
	return &Service{
		sensors:    sensors,
		population: population,
		cfg:        cfg,
		now:        time.Now,
	}
}

// GridSize returns the configured grid dimension.
func (s *Service) GridSize() int {
	return s.cfg.GridSize
}

// Weights returns the configured ranking weights.
func (s *Service) Weights() Weights {
	return s.cfg.Rank.Weights
}

// TopK returns the default number of ranked zones.
func (s *Service) TopK() int {
	return s.cfg.Rank.TopK
}

// SensorSnapshot returns the current sensor readings.
func (s *Service) SensorSnapshot(ctx context.Context) (Snapshot, error) {
	return s.sensors.Snapshot(ctx)
}

// AQIMatrix interpolates the current sensor snapshot onto the grid.
func (s *Service) AQIMatrix(ctx context.Context) (AQIMatrixResult, error) {
	snap, err := s.sensors.Snapshot(ctx)
	if err != nil {
		return AQIMatrixResult{}, err
	}
	return s.GenerateAQI(snap.Readings)
}

// GenerateAQI interpolates caller-supplied readings onto the grid.
func (s *Service) GenerateAQI(readings []Reading) (AQIMatrixResult, error) {
	grid, err := s.cfg.Interpolator.Interpolate(readings, s.cfg.GridSize)
	if err != nil {
		return AQIMatrixResult{}, err
	}
	stats := grid.Stats()
	return AQIMatrixResult{
		Timestamp: s.now().UnixMilli(),
		Sensors:   readings,
		Grid:      grid,
		Min:       stats.Min,
		Max:       stats.Max,
	}, nil
}

// PopulationMatrix samples one population dataset.
func (s *Service) PopulationMatrix(ctx context.Context) (PopulationResult, error) {
	grid, dataset, err := s.samplePopulation(ctx)
	if err != nil {
		return PopulationResult{}, err
	}
	return PopulationResult{
		Timestamp: s.now().UnixMilli(),
		Dataset:   dataset,
		Grid:      grid,
	}, nil
}

// PriorityZones ranks grid cells by combined AQI and population score.
// topK <= 0 uses the configured default.
func (s *Service) PriorityZones(ctx context.Context, topK int) (PriorityResult, error) {
	aqi, err := s.AQIMatrix(ctx)
	if err != nil {
		return PriorityResult{}, err
	}

	pop, dataset, err := s.samplePopulation(ctx)
	if err != nil {
		return PriorityResult{}, err
	}

	opts := s.cfg.Rank
	if topK > 0 {
		opts.TopK = topK
	}

	zones, err := Rank(aqi.Grid, pop, opts)
	if err != nil {
		zap.L().Error("priority ranking failed", zap.String("dataset", dataset), zap.Error(err))
		return PriorityResult{}, err
	}

	zap.L().Debug("priority zones computed",
		zap.String("dataset", dataset),
		zap.Int("sensors", len(aqi.Sensors)),
		zap.Int("zones", len(zones)),
	)

	return PriorityResult{
		Timestamp: s.now().UnixMilli(),
		Dataset:   dataset,
		Weights:   opts.Weights,
		Zones:     zones,
	}, nil
}

func (s *Service) samplePopulation(ctx context.Context) (Grid, string, error) {
	if s.population == nil {
		return Grid{}, "", eris.Wrap(ErrNoDataAvailable, "no population source configured")
	}
	grid, dataset, err := s.population.Sample(ctx, s.cfg.GridSize)
	if err != nil {
		return Grid{}, "", err
	}
	if grid.N != s.cfg.GridSize {
		return Grid{}, "", eris.Wrapf(ErrInvalidInput, "population dataset %q is %dx%d, want %dx%d",
			dataset, grid.N, grid.N, s.cfg.GridSize, s.cfg.GridSize)
	}
	return grid, dataset, nil
}
