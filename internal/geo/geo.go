// Package geo holds the small amount of planar geometry the tool needs:
// point-in-ring tests and approximate areas for lat/lon polygons.
package geo

import "math"

// Point is a lon/lat coordinate pair (x = longitude, y = latitude).
type Point struct {
	X float64
	Y float64
}

// PointInRing reports whether p lies inside the ring using the even-odd rule.
// The ring may be open or closed; orientation does not matter.
func PointInRing(p Point, ring []Point) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := ring[i], ring[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PointInPolygon treats the first ring as the outer boundary and any further
// rings as holes.
func PointInPolygon(p Point, rings [][]Point) bool {
	if len(rings) == 0 || !PointInRing(p, rings[0]) {
		return false
	}
	for _, hole := range rings[1:] {
		if PointInRing(p, hole) {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of a set of rings.
func Bounds(rings [][]Point) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, ring := range rings {
		for _, p := range ring {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	return
}

// milesPerDegreeLat is close enough for watershed-scale area figures.
const milesPerDegreeLat = 69.0

// AreaSquareMiles approximates the area of a lat/lon polygon by the shoelace
// formula with a cos(latitude) correction for longitude spacing. Holes are
// subtracted.
func AreaSquareMiles(rings [][]Point) float64 {
	if len(rings) == 0 {
		return 0
	}
	total := ringAreaSqMi(rings[0])
	for _, hole := range rings[1:] {
		total -= ringAreaSqMi(hole)
	}
	if total < 0 {
		total = -total
	}
	return total
}

func ringAreaSqMi(ring []Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var midLat, sum float64
	for _, p := range ring {
		midLat += p.Y
	}
	midLat /= float64(n)
	cosLat := math.Cos(midLat * math.Pi / 180)

	j := n - 1
	for i := 0; i < n; i++ {
		xi := ring[i].X * milesPerDegreeLat * cosLat
		yi := ring[i].Y * milesPerDegreeLat
		xj := ring[j].X * milesPerDegreeLat * cosLat
		yj := ring[j].Y * milesPerDegreeLat
		sum += xj*yi - xi*yj
		j = i
	}
	return math.Abs(sum / 2)
}
