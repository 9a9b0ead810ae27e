package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-zones/internal/airquality"
	"github.com/i474232898/air-quality-zones/internal/airquality/sources"
	"github.com/i474232898/air-quality-zones/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "popgen",
	Short: "Generate synthetic population-density datasets",
	Long:  "Writes N x N population grids as JSON files for the processing server's population directory.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		return config.InitLogger(config.LogConfig{Level: level, Format: "console"})
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = zap.L().Sync()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dir, _ := cmd.Flags().GetString("dir")
		count, _ := cmd.Flags().GetInt("count")
		size, _ := cmd.Flags().GetInt("grid-size")
		seed, _ := cmd.Flags().GetUint64("seed")
		towns, _ := cmd.Flags().GetInt("settlements")
		peak, _ := cmd.Flags().GetFloat64("peak-density")

		if count < 1 {
			return eris.Errorf("--count must be at least 1, got %d", count)
		}
		if towns < 0 || peak < 0 {
			return eris.Errorf("--settlements and --peak-density must not be negative, got %d and %g", towns, peak)
		}

		opts := sources.DefaultPopulationOptions()
		opts.Settlements = towns
		opts.PeakDensity = peak

		paths, err := sources.WriteDatasets(ctx, dir, count, size, seed, opts)
		if err != nil {
			return eris.Wrap(err, "popgen: write datasets")
		}

		zap.L().Info("population datasets written",
			zap.String("dir", dir),
			zap.Int("count", len(paths)),
			zap.Int("grid_size", size),
		)
		return nil
	},
}

func init() {
	f := rootCmd.Flags()
	f.String("dir", "population_data", "output directory")
	f.Int("count", 5, "number of datasets to generate")
	f.Int("grid-size", airquality.DefaultGridSize, "grid dimension N")
	f.Uint64("seed", 1, "random seed")
	f.Int("settlements", sources.DefaultPopulationOptions().Settlements, "population centres per dataset")
	f.Float64("peak-density", sources.DefaultPopulationOptions().PeakDensity, "maximum density at a settlement centre")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
