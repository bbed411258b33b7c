package geo

import shp "github.com/jonas-p/go-shp"

// ShapefileRings converts a shapefile polygon's part-indexed point list into
// rings usable by the point-in-polygon and area helpers.
func ShapefileRings(p *shp.Polygon) [][]Point {
	rings := make([][]Point, 0, len(p.Parts))
	for i, start := range p.Parts {
		end := int32(len(p.Points))
		if i+1 < len(p.Parts) {
			end = p.Parts[i+1]
		}
		ring := make([]Point, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, Point{X: pt.X, Y: pt.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}
