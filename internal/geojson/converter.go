// Package geojson serializes flood polygons and the scenario lookup table
// to disk (C5 in the design): one FeatureCollection file per sea level
// plus a single lookup.json indexing scenario/year to the file it landed
// in. Adapted from the teacher's OSM-layer GeoJSON writer — same
// orb/geojson encoding idiom, different property set and file layout.
package geojson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kantsteen/floodzone-pipeline/internal/types"
)

// FloodFeature is one polygon ready for serialization: a geographic
// polygon plus the properties spec.md requires on every emitted feature.
type FloodFeature struct {
	Geometry      orb.Polygon
	RegionName    string
	SeaLevelRiseM float64
}

// ToFeatureCollection builds the GeoJSON FeatureCollection for one sea
// level's flood features.
func ToFeatureCollection(features []FloodFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		feat := geojson.NewFeature(f.Geometry)
		feat.Properties["name"] = f.RegionName
		feat.Properties["sea_level_rise_m"] = f.SeaLevelRiseM
		fc.Append(feat)
	}
	return fc
}

// WriteLevel writes one sea level's FeatureCollection to
// {outputDir}/flood_{cm}cm.geojson.
func WriteLevel(outputDir string, roundedCm int, features []FloodFeature) (int64, error) {
	fc := ToFeatureCollection(features)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal flood_%dcm.geojson: %w", roundedCm, err)
	}

	path := filepath.Join(outputDir, types.GeoJSONFilename(roundedCm))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}

	return int64(len(data)), nil
}

// WriteLookup writes the scenario/year lookup table to
// {outputDir}/lookup.json, pretty-printed with 2-space indentation.
func WriteLookup(outputDir string, lookup types.Lookup) error {
	data, err := json.MarshalIndent(lookup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal lookup.json: %w", err)
	}

	path := filepath.Join(outputDir, "lookup.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
