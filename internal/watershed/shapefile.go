package watershed

import (
	"fmt"

	shp "github.com/jonas-p/go-shp"

	"github.com/hydrotools/antecedent/internal/geo"
)

// shapefileRings collects every polygon ring in the file. Multi-feature
// custom watersheds are treated as one combined boundary.
func shapefileRings(path string) ([][]geo.Point, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watershed shapefile: %w", err)
	}
	defer reader.Close()

	var rings [][]geo.Point
	for reader.Next() {
		_, shape := reader.Shape()
		polygon, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		rings = append(rings, geo.ShapefileRings(polygon)...)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("%s contains no polygon features", path)
	}
	return rings, nil
}
