// Package projection loads the sea-level rise projection table and builds
// the deduplicated set of rounded sea levels the rest of the pipeline works
// from (C1 in the design).
package projection

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kantsteen/floodzone-pipeline/internal/types"
)

// requiredColumns are the exact columns spec.md §6 requires, in any order.
var requiredColumns = []string{"scenario", "year", "sea_level_cm"}

// Load parses a projection CSV and rounds each row's sea_level_cm to the
// nearest multiple of stepCm (half-to-even). It returns the scenario/year
// lookup table and the ascending, deduplicated set of sea levels in meters.
func Load(path string, stepCm int) (types.Lookup, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open projections csv: %w", err)
	}
	defer f.Close() // nolint:errcheck

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return types.Lookup{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read projections header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, nil, err
	}

	lookup := make(types.Lookup)
	levels := make(map[int]struct{})

	rowNum := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse projections row %d: %w", rowNum, err)
		}
		rowNum++

		rec, err := parseRow(row, cols, stepCm)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		lookup[rec.LookupKey] = types.LookupEntry{
			Scenario:    rec.Scenario,
			Year:        rec.Year,
			ExactCm:     rec.SeaLevelCm,
			RoundedCm:   rec.RoundedCm,
			GeoJSONFile: types.GeoJSONFilename(rec.RoundedCm),
		}
		levels[rec.RoundedCm] = struct{}{}
	}

	sortedCm := make([]int, 0, len(levels))
	for cm := range levels {
		sortedCm = append(sortedCm, cm)
	}
	sort.Ints(sortedCm)

	sortedM := make([]float64, len(sortedCm))
	for i, cm := range sortedCm {
		sortedM[i] = float64(cm) / 100.0
	}

	return lookup, sortedM, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return idx, nil
}

func parseRow(row []string, cols map[string]int, stepCm int) (types.ProjectionRecord, error) {
	get := func(col string) (string, error) {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return "", fmt.Errorf("missing column %q", col)
		}
		return strings.TrimSpace(row[i]), nil
	}

	scenario, err := get("scenario")
	if err != nil {
		return types.ProjectionRecord{}, err
	}
	if scenario == "" {
		return types.ProjectionRecord{}, fmt.Errorf("empty scenario")
	}

	yearStr, err := get("year")
	if err != nil {
		return types.ProjectionRecord{}, err
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return types.ProjectionRecord{}, fmt.Errorf("invalid year %q: %w", yearStr, err)
	}

	cmStr, err := get("sea_level_cm")
	if err != nil {
		return types.ProjectionRecord{}, err
	}
	seaLevelCm, err := strconv.ParseFloat(cmStr, 64)
	if err != nil {
		return types.ProjectionRecord{}, fmt.Errorf("invalid sea_level_cm %q: %w", cmStr, err)
	}

	rounded := RoundToStep(seaLevelCm, stepCm)

	return types.ProjectionRecord{
		Scenario:   scenario,
		Year:       year,
		SeaLevelCm: seaLevelCm,
		RoundedCm:  rounded,
		LookupKey:  types.LookupKeyFor(scenario, year),
	}, nil
}

// RoundToStep rounds valueCm to the nearest multiple of stepCm. Ties (an
// exact half-step) round to the nearest even multiple, matching the
// reference implementation's use of Python's round() — this is what makes
// 47.5cm and 52.5cm both land on 50cm at a 5cm step (spec.md §8 scenario 3).
// Negative values are permitted (they round to a level that will simply
// never produce geometry; see extractor early-exit).
func RoundToStep(valueCm float64, stepCm int) int {
	if stepCm <= 0 {
		stepCm = 1
	}
	step := float64(stepCm)
	rounded := math.RoundToEven(valueCm/step) * step
	return int(math.Round(rounded))
}
