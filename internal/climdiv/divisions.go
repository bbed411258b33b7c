package climdiv

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/hydrotools/antecedent/internal/geo"
)

// ShapefileResolver answers division lookups against NOAA's official climate
// division boundary shapefile (attribute field CLIMDIV).
type ShapefileResolver struct {
	Path  string
	Field string
}

func NewShapefileResolver(path string) *ShapefileResolver {
	return &ShapefileResolver{Path: path, Field: "CLIMDIV"}
}

// Division returns the 4-digit climate division code containing the point.
func (r *ShapefileResolver) Division(lat, lon float64) (string, error) {
	reader, err := shp.Open(r.Path)
	if err != nil {
		return "", fmt.Errorf("open climate division shapefile: %w", err)
	}
	defer reader.Close()

	fieldIndex := -1
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), r.Field) {
			fieldIndex = i
			break
		}
	}
	if fieldIndex < 0 {
		return "", fmt.Errorf("field %s not found in %s", r.Field, r.Path)
	}

	point := geo.Point{X: lon, Y: lat}
	for reader.Next() {
		row, shape := reader.Shape()
		polygon, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		if geo.PointInPolygon(point, geo.ShapefileRings(polygon)) {
			division := strings.TrimSpace(reader.ReadAttribute(row, fieldIndex))
			if division == "" {
				return "", fmt.Errorf("division polygon at row %d has empty %s", row, r.Field)
			}
			return division, nil
		}
	}
	return "", fmt.Errorf("no climate division contains (%v, %v)", lat, lon)
}
