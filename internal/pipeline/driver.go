// Package pipeline orchestrates the full run (C6): load the projection
// table and tile inventory, fan out tile extraction across workers,
// aggregate and write each sea level's features, then write the lookup
// table. Adapted from the teacher's batch-generation driver — same
// two-phase worker-pool-plus-progress shape, now sequenced around
// per-tile extraction and per-sea-level aggregation instead of per-tile
// rendering.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/paulmach/orb"

	"github.com/kantsteen/floodzone-pipeline/internal/aggregate"
	"github.com/kantsteen/floodzone-pipeline/internal/extract"
	"github.com/kantsteen/floodzone-pipeline/internal/geo"
	"github.com/kantsteen/floodzone-pipeline/internal/geojson"
	"github.com/kantsteen/floodzone-pipeline/internal/projection"
	"github.com/kantsteen/floodzone-pipeline/internal/tiles"
	"github.com/kantsteen/floodzone-pipeline/internal/types"
	"github.com/kantsteen/floodzone-pipeline/internal/worker"
)

// dissolveResolutionM is the pixel size used to rasterize polygons during
// optional dissolve-mode union; fine enough to preserve tile-edge detail
// without blowing up grid size for large sea-level pools.
const dissolveResolutionM = 2.0

// Report summarizes a completed run for the caller (CLI output, tests).
type Report struct {
	TilesProcessed  int
	TilesFlooded    int
	SeaLevelsFound  int
	LevelsWritten   int
	FeaturesWritten int
	Elapsed         time.Duration
}

// Run executes the full pipeline against cfg.
func Run(ctx context.Context, cfg types.Config, logger *slog.Logger) (Report, error) {
	start := time.Now()
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	lookup, seaLevelsM, err := projection.Load(cfg.ProjectionsCSV, cfg.RoundingStepCm)
	if err != nil {
		return Report{}, fmt.Errorf("load projections: %w", err)
	}
	if cfg.TestMode && len(seaLevelsM) > 3 {
		seaLevelsM = seaLevelsM[:3]
	}
	logger.Info("loaded projections", "scenarios", len(lookup), "sea_levels", len(seaLevelsM), "test_mode", cfg.TestMode)

	tilePaths, err := tiles.List(cfg.ElevationFolder)
	if err != nil {
		return Report{}, fmt.Errorf("list tiles: %w", err)
	}
	logger.Info("found elevation tiles", "count", len(tilePaths))

	if err := os.MkdirAll(cfg.OutputFolder, 0o755); err != nil {
		return Report{}, fmt.Errorf("create output folder: %w", err)
	}

	report := Report{SeaLevelsFound: len(seaLevelsM)}

	if len(tilePaths) == 0 || len(seaLevelsM) == 0 {
		if err := geojson.WriteLookup(cfg.OutputFolder, lookup); err != nil {
			return report, err
		}
		report.Elapsed = time.Since(start)
		return report, nil
	}

	pool := map[float64][]orb.Polygon{}
	extractOpts := extract.Options{
		WaterThresholdM:    cfg.WaterThresholdM,
		SimplifyToleranceM: cfg.SimplifyToleranceM,
		MinPolygonAreaM2:   cfg.MinPolygonAreaM2,
		DownsampleFactor:   cfg.Downsample,
	}

	progress := worker.NewProgress(len(tilePaths), cfg.ShowProgress, "tiles")
	extractPool := worker.New(worker.Config[string, extract.Result]{
		Workers:    workers,
		OnProgress: progress.Callback(),
		Fn: func(ctx context.Context, tilePath string) (extract.Result, error) {
			return extract.Tile(tilePath, seaLevelsM, extractOpts)
		},
	})

	results := extractPool.Run(ctx, tilePaths)
	progress.Done()

	for i, r := range results {
		if r.Err != nil {
			logger.Error("tile extraction failed", "tile", r.Item, "error", r.Err)
			continue
		}
		report.TilesProcessed++
		flooded := r.Value.FloodedLevels()
		if flooded > 0 {
			report.TilesFlooded++
		}

		msg := "no flooding"
		if flooded > 0 {
			msg = fmt.Sprintf("flooding at %d levels", flooded)
		}
		logger.Info(msg,
			"progress", fmt.Sprintf("%d/%d", i+1, len(results)),
			"tile", r.Item,
			"levels_flooded", flooded,
			"pixels_flooded", r.Value.TotalPixels(),
			"elapsed", r.Elapsed,
		)

		for level, polys := range r.Value.Polygons {
			pool[level] = append(pool[level], polys...)
		}
	}
	logger.Info("tile extraction complete", "processed", report.TilesProcessed, "flooded", report.TilesFlooded)

	nonEmptyLevels := make([]float64, 0, len(pool))
	for level, polys := range pool {
		if len(polys) > 0 {
			nonEmptyLevels = append(nonEmptyLevels, level)
		}
	}

	aggProgress := worker.NewProgress(len(nonEmptyLevels), cfg.ShowProgress, "levels")
	aggPool := worker.New(worker.Config[float64, aggregate.Summary]{
		Workers:    workers,
		OnProgress: aggProgress.Callback(),
		Fn: func(ctx context.Context, level float64) (aggregate.Summary, error) {
			polys := pool[level]
			if cfg.Dissolve {
				polys = aggregate.Dissolve(polys, dissolveResolutionM)
			}
			roundedCm := int(math.Round(level * 100))
			return aggregate.Level(cfg.OutputFolder, level, roundedCm, polys, cfg.MinPolygonAreaM2, cfg.RegionName, geo.UTM{ZoneNumber: cfg.SourceEPSG % 100, Northern: true})
		},
	})

	aggResults := aggPool.Run(ctx, nonEmptyLevels)
	aggProgress.Done()

	for _, r := range aggResults {
		if r.Err != nil {
			logger.Error("aggregation failed", "sea_level_m", r.Item, "error", r.Err)
			continue
		}
		report.LevelsWritten++
		report.FeaturesWritten += r.Value.FeatsOut
	}

	if err := geojson.WriteLookup(cfg.OutputFolder, lookup); err != nil {
		return report, err
	}

	report.Elapsed = time.Since(start)
	logger.Info("pipeline complete", "levels_written", report.LevelsWritten, "features", report.FeaturesWritten, "elapsed", report.Elapsed)

	return report, nil
}
