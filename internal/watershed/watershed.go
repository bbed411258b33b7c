// Package watershed identifies the watershed containing a point and draws
// random sampling points inside it.
package watershed

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/hydrotools/antecedent/internal/geo"
	"github.com/hydrotools/antecedent/internal/models"
)

// DefaultBaseURL is the USGS Watershed Boundary Dataset map service.
const DefaultBaseURL = "https://hydro.nationalmap.gov/arcgis/rest/services/wbd/MapServer"

// Sampling density: one point per 2 square miles, clamped so tiny HUC12s
// still get a meaningful sample and HUC8 runs stay tractable.
const (
	sqMiPerPoint = 2.0
	minPoints    = 10
	maxPoints    = 150
)

// Sampled is the outcome of a watershed identification.
type Sampled struct {
	HUC      string // empty for custom polygons
	Points   []models.SamplingPoint
	AreaSqMi float64
}

// Sampler locates a watershed and samples points inside it.
type Sampler interface {
	Sample(ctx context.Context, lat, lon float64, scope models.Scope) (*Sampled, error)
	SampleShapefile(lat, lon float64, path string) (*Sampled, error)
}

// WBDSampler queries the national WBD service for HUC scopes and reads local
// shapefiles for custom polygons.
type WBDSampler struct {
	http    *retryablehttp.Client
	baseURL string
	rng     *rand.Rand
}

func NewWBDSampler() *WBDSampler {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil
	return &WBDSampler{
		http:    client,
		baseURL: DefaultBaseURL,
		rng:     rand.New(rand.NewSource(rand.Int63())),
	}
}

func (s *WBDSampler) SetBaseURL(u string) { s.baseURL = u }

// SetSeed pins the random source so a run's sampling points are reproducible.
func (s *WBDSampler) SetSeed(seed int64) { s.rng = rand.New(rand.NewSource(seed)) }

// WBD MapServer layer ids per HUC level.
func layerFor(scope models.Scope) (layer int, field string, err error) {
	switch scope {
	case models.ScopeHUC8:
		return 4, "huc8", nil
	case models.ScopeHUC10:
		return 5, "huc10", nil
	case models.ScopeHUC12:
		return 6, "huc12", nil
	}
	return 0, "", fmt.Errorf("scope %q has no WBD layer", scope)
}

// Sample finds the HUC of the requested level containing the point and draws
// sampling points inside its boundary.
func (s *WBDSampler) Sample(ctx context.Context, lat, lon float64, scope models.Scope) (*Sampled, error) {
	layer, field, err := layerFor(scope)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("geometry", fmt.Sprintf("%s,%s", models.FormatCoord(lon), models.FormatCoord(lat)))
	q.Set("geometryType", "esriGeometryPoint")
	q.Set("inSR", "4326")
	q.Set("spatialRel", "esriSpatialRelIntersects")
	q.Set("outFields", field)
	q.Set("returnGeometry", "true")
	q.Set("outSR", "4326")
	q.Set("f", "geojson")
	u := fmt.Sprintf("%s/%d/query?%s", s.baseURL, layer, q.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query WBD: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("query WBD: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read WBD response: %w", err)
	}

	feature := gjson.GetBytes(body, "features.0")
	if !feature.Exists() {
		return nil, fmt.Errorf("no %s watershed found at %s, %s", scope,
			models.FormatCoord(lat), models.FormatCoord(lon))
	}
	huc := feature.Get("properties." + field).String()
	if huc == "" {
		return nil, fmt.Errorf("WBD feature missing %s field", field)
	}

	rings, err := geoJSONRings(feature.Get("geometry"))
	if err != nil {
		return nil, err
	}
	area := geo.AreaSquareMiles(rings)
	points, err := s.samplePoints(rings, area)
	if err != nil {
		return nil, fmt.Errorf("sample %s %s: %w", scope, huc, err)
	}
	log.Printf("%s (%s): %.1f sq mi, %d sampling points", scope, huc, area, len(points))
	return &Sampled{HUC: huc, Points: points, AreaSqMi: area}, nil
}

// SampleShapefile samples inside the first polygon of a local shapefile.
func (s *WBDSampler) SampleShapefile(lat, lon float64, path string) (*Sampled, error) {
	rings, err := shapefileRings(path)
	if err != nil {
		return nil, err
	}
	if !geo.PointInPolygon(geo.Point{X: lon, Y: lat}, rings) {
		log.Printf("Note: coordinates fall outside the supplied watershed boundary")
	}
	area := geo.AreaSquareMiles(rings)
	points, err := s.samplePoints(rings, area)
	if err != nil {
		return nil, fmt.Errorf("sample custom polygon: %w", err)
	}
	log.Printf("Custom Polygon: %.1f sq mi, %d sampling points", area, len(points))
	return &Sampled{Points: points, AreaSqMi: area}, nil
}

// samplePoints draws interior points by rejection sampling over the bounding
// box. A bounded attempt count guards against degenerate geometry.
func (s *WBDSampler) samplePoints(rings [][]geo.Point, areaSqMi float64) ([]models.SamplingPoint, error) {
	want := int(areaSqMi / sqMiPerPoint)
	if want < minPoints {
		want = minPoints
	}
	if want > maxPoints {
		want = maxPoints
	}

	minX, minY, maxX, maxY := geo.Bounds(rings)
	if maxX <= minX || maxY <= minY {
		return nil, fmt.Errorf("degenerate boundary")
	}

	points := make([]models.SamplingPoint, 0, want)
	attempts := 0
	maxAttempts := want * 1000
	for len(points) < want && attempts < maxAttempts {
		attempts++
		p := geo.Point{
			X: minX + s.rng.Float64()*(maxX-minX),
			Y: minY + s.rng.Float64()*(maxY-minY),
		}
		if geo.PointInPolygon(p, rings) {
			points = append(points, models.SamplingPoint{Latitude: roundCoord(p.Y), Longitude: roundCoord(p.X)})
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no interior points found after %d attempts", attempts)
	}
	return points, nil
}

// roundCoord trims sampling coordinates to six decimal places, about 10 cm.
func roundCoord(v float64) float64 {
	const scale = 1e6
	if v < 0 {
		return float64(int64(v*scale-0.5)) / scale
	}
	return float64(int64(v*scale+0.5)) / scale
}

// geoJSONRings flattens a GeoJSON Polygon or MultiPolygon into rings.
func geoJSONRings(geom gjson.Result) ([][]geo.Point, error) {
	var rings [][]geo.Point
	appendRing := func(r gjson.Result) {
		var ring []geo.Point
		r.ForEach(func(_, pos gjson.Result) bool {
			coords := pos.Array()
			if len(coords) >= 2 {
				ring = append(ring, geo.Point{X: coords[0].Float(), Y: coords[1].Float()})
			}
			return true
		})
		if len(ring) >= 3 {
			rings = append(rings, ring)
		}
	}

	switch geom.Get("type").String() {
	case "Polygon":
		geom.Get("coordinates").ForEach(func(_, r gjson.Result) bool {
			appendRing(r)
			return true
		})
	case "MultiPolygon":
		geom.Get("coordinates").ForEach(func(_, poly gjson.Result) bool {
			poly.ForEach(func(_, r gjson.Result) bool {
				appendRing(r)
				return true
			})
			return true
		})
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", geom.Get("type").String())
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("geometry has no usable rings")
	}
	return rings, nil
}
