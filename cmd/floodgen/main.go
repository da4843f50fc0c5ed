// Command floodgen precomputes coastal flood-zone overlays from elevation
// rasters and a sea-level rise projection table.
package main

import "github.com/kantsteen/floodzone-pipeline/internal/cmd"

func main() {
	cmd.Execute()
}
