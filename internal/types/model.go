// Package types holds the data model shared across the flood-zone
// precomputation pipeline: projection records, the scenario/year lookup
// table, and the run-level configuration threaded into every stage.
package types

import "fmt"

// ProjectionRecord is one row of the sea-level projection table.
// Immutable once constructed by the projection loader.
type ProjectionRecord struct {
	Scenario    string
	Year        int
	SeaLevelCm  float64
	RoundedCm   int
	LookupKey   string
}

// LookupEntry is the public record written to lookup.json, keyed by
// "{scenario}_{year}".
type LookupEntry struct {
	Scenario    string `json:"scenario"`
	Year        int    `json:"year"`
	ExactCm     float64 `json:"exact_cm"`
	RoundedCm   int    `json:"rounded_cm"`
	GeoJSONFile string `json:"geojson_file"`
}

// Lookup maps "{scenario}_{year}" to its resolved output layer.
type Lookup map[string]LookupEntry

// GeoJSONFilename returns the canonical per-sea-level output filename for a
// rounded centimeter value, e.g. flood_50cm.geojson.
func GeoJSONFilename(roundedCm int) string {
	return fmt.Sprintf("flood_%dcm.geojson", roundedCm)
}

// LookupKeyFor builds the "{scenario}_{year}" key used throughout the
// pipeline and in lookup.json.
func LookupKeyFor(scenario string, year int) string {
	return fmt.Sprintf("%s_%d", scenario, year)
}

// Config is the full set of pipeline options from spec §6, threaded
// explicitly into the driver and its workers rather than read from package
// globals.
type Config struct {
	ElevationFolder       string
	ProjectionsCSV        string
	OutputFolder          string
	WaterThresholdM       float64
	SimplifyToleranceM    float64
	MinPolygonAreaM2      float64
	RoundingStepCm        int
	Downsample            int
	Dissolve              bool
	TestMode              bool
	Workers               int
	RegionName            string
	SourceEPSG            int
	ShowProgress          bool
}

// DefaultConfig returns the §6 defaults.
func DefaultConfig() Config {
	return Config{
		ElevationFolder:    "elevation_data_RF",
		ProjectionsCSV:     "sea_rise_projections/roskilde_fjord_projections.csv",
		OutputFolder:       "flood_geojsons",
		WaterThresholdM:    0.1,
		SimplifyToleranceM: 3,
		MinPolygonAreaM2:   2000,
		RoundingStepCm:     5,
		Downsample:         2,
		Dissolve:           false,
		TestMode:           false,
		Workers:            0, // 0 => runtime.NumCPU()
		RegionName:         "Flood Zone",
		SourceEPSG:         25832,
		ShowProgress:       true,
	}
}
