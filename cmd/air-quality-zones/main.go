package main

import (
	"context"
	"log"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/air-quality-zones/internal/api/http"
	"github.com/i474232898/air-quality-zones/internal/airquality"
	"github.com/i474232898/air-quality-zones/internal/airquality/sources"
	"github.com/i474232898/air-quality-zones/internal/config"
	"github.com/i474232898/air-quality-zones/internal/scheduler"
	"github.com/i474232898/air-quality-zones/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()

	// Sensors: a remote sensor server when configured, otherwise the in-process drifting store.
	var sensors airquality.SensorSource
	if cfg.SensorSourceURL != "" {
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		sensors = sources.NewRemoteSensorSource(httpClient, cfg.SensorSourceURL)
		zap.L().Info("using remote sensor server", zap.String("url", cfg.SensorSourceURL))
	} else {
		sensorStore, err := store.NewSensorStore(store.DefaultReadings(), store.DriftOptions{
			MaxStep: cfg.DriftMaxStep,
			MinAQI:  cfg.AQIMin,
			MaxAQI:  cfg.AQIMax,
		}, nil)
		if err != nil {
			zap.L().Fatal("failed to create sensor store", zap.Error(err))
		}
		sensors = sensorStore

		sched := scheduler.New(cfg.DriftInterval, sensorStore)
		if err := sched.Start(); err != nil {
			zap.L().Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	population, err := newPopulationRepository(cfg)
	if err != nil {
		zap.L().Fatal("failed to prepare population datasets", zap.Error(err))
	}

	service := airquality.NewService(sensors, sources.NewPopulationProvider(population, nil), airquality.ServiceConfig{
		GridSize: cfg.GridSize,
		Interpolator: &airquality.Interpolator{
			Power:   cfg.IDWPower,
			Epsilon: airquality.DefaultEpsilon,
		},
		Rank: airquality.RankOptions{
			Weights: airquality.Weights{AQI: cfg.WeightAQI, Population: cfg.WeightPopulation},
			TopK:    cfg.TopK,
			Epsilon: airquality.DefaultEpsilon,
		},
	})

	app := httpapi.NewApp(service, true)

	go func() {
		zap.L().Info("processing server listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zap.L().Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zap.L().Error("error during shutdown", zap.Error(err))
	}
}

func newPopulationRepository(cfg *config.AppConfig) (sources.DatasetRepository, error) {
	if cfg.PopulationSynthetic <= 0 {
		zap.L().Info("serving population datasets from directory", zap.String("dir", cfg.PopulationDir))
		return sources.NewDirRepository(cfg.PopulationDir), nil
	}

	repo := sources.NewMemoryRepository()
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	for i := 0; i < cfg.PopulationSynthetic; i++ {
		grid, err := sources.GeneratePopulation(cfg.GridSize, rng, sources.DefaultPopulationOptions())
		if err != nil {
			return nil, err
		}
		repo.Add(grid)
	}
	zap.L().Info("seeded synthetic population datasets", zap.Int("count", cfg.PopulationSynthetic))
	return repo, nil
}
