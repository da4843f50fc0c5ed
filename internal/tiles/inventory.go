// Package tiles enumerates elevation raster files in an input directory,
// providing the stable ordering the driver and its progress reporting rely
// on (C2 in the design).
package tiles

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// rasterExtensions are the file suffixes treated as elevation rasters.
var rasterExtensions = []string{".tif", ".tiff"}

// List returns the sorted-by-filename paths of every raster in dir.
// Sorting makes progress reports and polygon-pool tie-breaking reproducible
// across runs, per spec.md §4.2.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read elevation folder %q: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isRaster(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}

func isRaster(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range rasterExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
