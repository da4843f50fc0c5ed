package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kantsteen/floodzone-pipeline/internal/pipeline"
	"github.com/kantsteen/floodzone-pipeline/internal/types"
)

var cfgFile string
var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "floodgen",
	Short: "Precompute coastal flood-zone overlays from elevation rasters",
	Long: `floodgen reads digital-elevation GeoTIFF tiles and a sea-level rise
projection table, extracts the flooded footprint at every distinct rounded
sea level, and writes one GeoJSON layer per level plus a lookup table mapping
each scenario/year to the layer that serves it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromViper()

		report, err := pipeline.Run(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("run pipeline: %w", err)
		}

		logger.Info("done",
			"tiles_processed", report.TilesProcessed,
			"tiles_flooded", report.TilesFlooded,
			"sea_levels_found", report.SeaLevelsFound,
			"levels_written", report.LevelsWritten,
			"features_written", report.FeaturesWritten,
			"elapsed", report.Elapsed,
		)
		return nil
	},
}

func Execute() {
	if logger == nil {
		initLogging() // fallback in case cobra init didn't fire
	}
	rootCmd.SetContext(context.Background())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	defaults := types.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.Flags().String("elevation-folder", defaults.ElevationFolder, "Directory of input elevation GeoTIFF tiles")
	rootCmd.Flags().String("projections-csv", defaults.ProjectionsCSV, "Sea-level rise projection table (scenario,year,sea_level_cm)")
	rootCmd.Flags().String("output-folder", defaults.OutputFolder, "Directory to write flood_*cm.geojson and lookup.json into")
	rootCmd.Flags().Float64("water-threshold-m", defaults.WaterThresholdM, "Minimum elevation treated as dry land, excludes pre-existing sea")
	rootCmd.Flags().Float64("simplify-tolerance-m", defaults.SimplifyToleranceM, "Douglas-Peucker simplification tolerance in meters")
	rootCmd.Flags().Float64("min-polygon-area-m2", defaults.MinPolygonAreaM2, "Drop flood polygons smaller than this area in square meters")
	rootCmd.Flags().Int("rounding-step-cm", defaults.RoundingStepCm, "Round sea levels to the nearest multiple of this many centimeters")
	rootCmd.Flags().Int("downsample", defaults.Downsample, "Area-average downsample factor applied to each tile before flooding, 0 or 1 disables it")
	rootCmd.Flags().Bool("dissolve", defaults.Dissolve, "Dissolve adjoining tile polygons into one shape per sea level")
	rootCmd.Flags().Bool("test", defaults.TestMode, "Process only the first 3 unique sea levels, for fast local iteration")
	rootCmd.Flags().Int("workers", defaults.Workers, "Number of concurrent workers, 0 uses all available CPUs")
	rootCmd.Flags().String("region-name", defaults.RegionName, "Region name written into each feature's properties")
	rootCmd.Flags().Int("source-epsg", defaults.SourceEPSG, "EPSG code of the input rasters' projected CRS (UTM zone)")
	rootCmd.Flags().Bool("progress", defaults.ShowProgress, "Show a progress bar while processing")
	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	for _, name := range []string{
		"elevation-folder", "projections-csv", "output-folder",
		"water-threshold-m", "simplify-tolerance-m", "min-polygon-area-m2",
		"rounding-step-cm", "downsample", "dissolve", "test", "workers",
		"region-name", "source-epsg", "progress", "log-level",
	} {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %q: %v", name, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("FLOODGEN")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("progress") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func initLogging() {
	levelStr := strings.ToLower(viper.GetString("log-level"))
	level := slog.LevelInfo
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error", "err":
		level = slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Unknown log level %q, defaulting to info\n", levelStr)
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// configFromViper builds a types.Config from bound flags/env/config-file
// values. Test mode is passed through as TestMode; the pipeline uses it to
// cap the run at the first 3 unique sea levels.
func configFromViper() types.Config {
	cfg := types.Config{
		ElevationFolder:    viper.GetString("elevation-folder"),
		ProjectionsCSV:     viper.GetString("projections-csv"),
		OutputFolder:       viper.GetString("output-folder"),
		WaterThresholdM:    viper.GetFloat64("water-threshold-m"),
		SimplifyToleranceM: viper.GetFloat64("simplify-tolerance-m"),
		MinPolygonAreaM2:   viper.GetFloat64("min-polygon-area-m2"),
		RoundingStepCm:     viper.GetInt("rounding-step-cm"),
		Downsample:         viper.GetInt("downsample"),
		Dissolve:           viper.GetBool("dissolve"),
		TestMode:           viper.GetBool("test"),
		Workers:            viper.GetInt("workers"),
		RegionName:         viper.GetString("region-name"),
		SourceEPSG:         viper.GetInt("source-epsg"),
		ShowProgress:       viper.GetBool("progress"),
	}
	return cfg
}
