package config

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type AppConfig struct {
	Port string

	// GridSize is the dimension N of every N x N grid.
	GridSize int
	// IDWPower is the distance exponent of the interpolation.
	IDWPower float64

	// DriftInterval controls how often sensor values drift.
	DriftInterval time.Duration
	DriftMaxStep  int
	AQIMin        int
	AQIMax        int

	WeightAQI        float64
	WeightPopulation float64
	TopK             int

	// PopulationDir holds pre-generated population datasets as JSON files.
	PopulationDir string
	// PopulationSynthetic, when > 0, seeds that many generated datasets in memory
	// instead of reading PopulationDir.
	PopulationSynthetic int

	// SensorSourceURL points at a remote sensor server. Empty means the
	// in-process sensor store is used.
	SensorSourceURL string
	HTTPTimeout     time.Duration

	Log LogConfig
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file loaded", zap.Error(err))
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")

	if cfg.GridSize, err = getenvInt("GRID_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.IDWPower, err = getenvFloat("IDW_POWER", 2); err != nil {
		return nil, err
	}

	// Sensors drift every 3 seconds by default.
	if cfg.DriftInterval, err = getenvDuration("DRIFT_INTERVAL", "3s"); err != nil {
		return nil, err
	}
	if cfg.DriftMaxStep, err = getenvInt("DRIFT_MAX_STEP", 2); err != nil {
		return nil, err
	}
	if cfg.AQIMin, err = getenvInt("AQI_MIN", 30); err != nil {
		return nil, err
	}
	if cfg.AQIMax, err = getenvInt("AQI_MAX", 300); err != nil {
		return nil, err
	}

	if cfg.WeightAQI, err = getenvFloat("WEIGHT_AQI", 0.6); err != nil {
		return nil, err
	}
	if cfg.WeightPopulation, err = getenvFloat("WEIGHT_POPULATION", 0.4); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getenvInt("TOP_K", 5); err != nil {
		return nil, err
	}

	cfg.PopulationDir = getenvDefault("POPULATION_DIR", "population_data")
	if cfg.PopulationSynthetic, err = getenvInt("POPULATION_SYNTHETIC", 0); err != nil {
		return nil, err
	}

	cfg.SensorSourceURL = os.Getenv("SENSOR_SOURCE_URL")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "5s"); err != nil {
		return nil, err
	}

	cfg.Log = LogConfig{
		Level:  getenvDefault("LOG_LEVEL", "info"),
		Format: getenvDefault("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the core cannot run with.
func (c *AppConfig) Validate() error {
	if c.GridSize < 2 {
		return eris.Errorf("config: GRID_SIZE must be at least 2, got %d", c.GridSize)
	}
	if c.IDWPower <= 0 {
		return eris.Errorf("config: IDW_POWER must be positive, got %g", c.IDWPower)
	}
	if c.DriftInterval <= 0 {
		return eris.Errorf("config: DRIFT_INTERVAL must be positive, got %s", c.DriftInterval)
	}
	if c.DriftMaxStep < 0 {
		return eris.Errorf("config: DRIFT_MAX_STEP must not be negative, got %d", c.DriftMaxStep)
	}
	if c.AQIMin > c.AQIMax {
		return eris.Errorf("config: AQI_MIN %d exceeds AQI_MAX %d", c.AQIMin, c.AQIMax)
	}
	if c.WeightAQI < 0 || c.WeightPopulation < 0 || math.Abs(c.WeightAQI+c.WeightPopulation-1) > 1e-6 {
		return eris.Errorf("config: weights must be non-negative and sum to 1, got (%g, %g)",
			c.WeightAQI, c.WeightPopulation)
	}
	if c.TopK < 1 {
		return eris.Errorf("config: TOP_K must be at least 1, got %d", c.TopK)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s", key)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s", key)
	}
	return d, nil
}
