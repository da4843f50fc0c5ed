// Package vectorize turns a boolean flood mask into polygons in the
// tile's projected CRS, tracing pixel-boundary edges rather than smoothing
// a contour — the same shape rasterio.features.shapes (used by the
// reference implementation) produces: orthogonal rings that follow pixel
// edges exactly, including holes for enclosed unflooded pixels.
package vectorize

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/kantsteen/floodzone-pipeline/internal/mask"
	"github.com/kantsteen/floodzone-pipeline/internal/raster"
)

type vertex struct{ col, row int }

// Extract traces the boundary of every 4-connected component of set
// pixels in m, returning one polygon (exterior ring plus any hole rings)
// per component, with vertices converted to the tile's projected CRS via
// transform. Diagonal-only touching pixels belong to different polygons.
func Extract(m *mask.Mask, transform raster.Affine) []orb.Polygon {
	if m.Empty() {
		return nil
	}

	labels := labelComponents(m)

	edgesByLabel := make(map[int]map[vertex]vertex)
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			lbl := labels[row*m.Width+col]
			if lbl == 0 {
				continue
			}
			set := edgesByLabel[lbl]
			if set == nil {
				set = make(map[vertex]vertex)
				edgesByLabel[lbl] = set
			}
			addBoundaryEdges(m, labels, col, row, lbl, set)
		}
	}

	var polygons []orb.Polygon
	for _, edges := range edgesByLabel {
		loops := traceLoops(edges)
		polygons = append(polygons, assembleRings(loops, transform)...)
	}

	return polygons
}

// labelComponents assigns each set pixel in m a positive component label
// via 4-connected BFS flood fill; unset pixels stay labeled 0.
func labelComponents(m *mask.Mask) []int {
	labels := make([]int, m.Width*m.Height)
	next := 1

	queue := make([]vertex, 0, 64)
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			idx := row*m.Width + col
			if !m.At(col, row) || labels[idx] != 0 {
				continue
			}
			label := next
			next++
			labels[idx] = label
			queue = queue[:0]
			queue = append(queue, vertex{col, row})
			for len(queue) > 0 {
				v := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nc, nr := v.col+d[0], v.row+d[1]
					if nc < 0 || nc >= m.Width || nr < 0 || nr >= m.Height {
						continue
					}
					nidx := nr*m.Width + nc
					if !m.At(nc, nr) || labels[nidx] != 0 {
						continue
					}
					labels[nidx] = label
					queue = append(queue, vertex{nc, nr})
				}
			}
		}
	}

	return labels
}

// addBoundaryEdges emits the directed unit-grid edges of pixel (col,row)
// that border a pixel outside its own component (or the tile edge),
// walking so the flooded cell stays on the right of the travel direction.
// Consistently oriented this way, a loop's shoelace sign over (col,row)
// distinguishes an exterior ring (positive) from a hole (negative).
func addBoundaryEdges(m *mask.Mask, labels []int, col, row, label int, edges map[vertex]vertex) {
	sameLabel := func(c, r int) bool {
		if c < 0 || c >= m.Width || r < 0 || r >= m.Height {
			return false
		}
		return labels[r*m.Width+c] == label
	}

	if !sameLabel(col, row-1) {
		edges[vertex{col, row}] = vertex{col + 1, row}
	}
	if !sameLabel(col+1, row) {
		edges[vertex{col + 1, row}] = vertex{col + 1, row + 1}
	}
	if !sameLabel(col, row+1) {
		edges[vertex{col + 1, row + 1}] = vertex{col, row + 1}
	}
	if !sameLabel(col-1, row) {
		edges[vertex{col, row + 1}] = vertex{col, row}
	}
}

// traceLoops follows the directed edge map until every edge has been
// consumed, returning each closed vertex loop found.
func traceLoops(edges map[vertex]vertex) [][]vertex {
	remaining := make(map[vertex]vertex, len(edges))
	for k, v := range edges {
		remaining[k] = v
	}

	var loops [][]vertex
	for len(remaining) > 0 {
		var start vertex
		for k := range remaining {
			start = k
			break
		}

		loop := []vertex{start}
		cur := start
		for {
			next, ok := remaining[cur]
			if !ok {
				break
			}
			delete(remaining, cur)
			if next == start {
				break
			}
			loop = append(loop, next)
			cur = next
		}
		loops = append(loops, loop)
	}

	return loops
}

// assembleRings converts pixel-space loops into orb rings in the tile's
// projected CRS, classifies each by winding into exterior/hole, and
// assigns holes to the exterior ring that contains them.
func assembleRings(loops [][]vertex, transform raster.Affine) []orb.Polygon {
	type ring struct {
		points orb.Ring
		area   float64 // signed, in pixel-space units
	}

	rings := make([]ring, 0, len(loops))
	for _, loop := range loops {
		if len(loop) < 3 {
			continue
		}
		pts := make(orb.Ring, 0, len(loop)+1)
		for _, v := range loop {
			x, y := transform.ToProjected(float64(v.col), float64(v.row))
			pts = append(pts, orb.Point{x, y})
		}
		pts = append(pts, pts[0])
		rings = append(rings, ring{points: pts, area: shoelaceSigned(loop)})
	}

	var exteriors []orb.Polygon
	var extLoops []([]vertex)
	for i, r := range rings {
		if r.area > 0 {
			exteriors = append(exteriors, orb.Polygon{r.points})
			extLoops = append(extLoops, loops[i])
		}
	}

	for i, r := range rings {
		if r.area >= 0 {
			continue
		}
		owner := findContainingExterior(loops[i][0], extLoops)
		if owner < 0 {
			continue
		}
		exteriors[owner] = append(exteriors[owner], r.points)
	}

	return exteriors
}

func shoelaceSigned(loop []vertex) float64 {
	var sum float64
	n := len(loop)
	for i := 0; i < n; i++ {
		a := loop[i]
		b := loop[(i+1)%n]
		sum += float64(a.col)*float64(b.row) - float64(b.col)*float64(a.row)
	}
	return sum / 2
}

func findContainingExterior(p vertex, exteriors [][]vertex) int {
	for i, loop := range exteriors {
		if pointInPixelLoop(p, loop) {
			return i
		}
	}
	return -1
}

// pointInPixelLoop is a standard ray-casting point-in-polygon test over
// pixel-space loop vertices.
func pointInPixelLoop(p vertex, loop []vertex) bool {
	inside := false
	n := len(loop)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := loop[i], loop[j]
		if (float64(a.row) > float64(p.row)) != (float64(b.row) > float64(p.row)) {
			slopeX := float64(b.col-a.col)*(float64(p.row)-float64(a.row))/(float64(b.row)-float64(a.row)) + float64(a.col)
			if float64(p.col) < slopeX {
				inside = !inside
			}
		}
	}
	return inside
}

// RingArea returns the unsigned area (in projected units squared, i.e.
// m²) enclosed by a closed ring via the shoelace formula.
func RingArea(r orb.Ring) float64 {
	var sum float64
	n := len(r)
	for i := 0; i < n; i++ {
		a := r[i]
		b := r[(i+1)%n]
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return math.Abs(sum / 2)
}

// PolygonArea returns a polygon's net area: its exterior ring's area
// minus the area of every hole.
func PolygonArea(p orb.Polygon) float64 {
	if len(p) == 0 {
		return 0
	}
	area := RingArea(p[0])
	for _, hole := range p[1:] {
		area -= RingArea(hole)
	}
	if area < 0 {
		return 0
	}
	return area
}

// Simplify applies Douglas-Peucker simplification (tolerance toleranceM,
// in the polygon's own linear units) to every ring of p, preserving
// closure. Hole rings that collapse below a triangle are dropped; if the
// exterior ring collapses, the result is the original, unsimplified
// exterior ring alone, without any holes.
func Simplify(p orb.Polygon, toleranceM float64) orb.Polygon {
	if toleranceM <= 0 {
		return p
	}
	simplifier := simplify.DouglasPeucker(toleranceM)

	out := make(orb.Polygon, 0, len(p))
	for _, r := range p {
		simplified := simplifyRing(simplifier, r)
		if len(simplified) < 4 {
			if len(out) == 0 {
				return orb.Polygon{r}
			}
			continue
		}
		out = append(out, simplified)
	}
	if len(out) == 0 {
		return p
	}
	return out
}

func simplifyRing(simplifier simplify.Simplifier, r orb.Ring) orb.Ring {
	ls := make(orb.LineString, len(r))
	copy(ls, r)

	result := simplifier.Simplify(ls)
	line, ok := result.(orb.LineString)
	if !ok {
		return r
	}

	out := orb.Ring(line)
	if len(out) > 0 {
		first, last := out[0], out[len(out)-1]
		if first[0] != last[0] || first[1] != last[1] {
			out = append(out, first)
		}
	}
	return out
}
