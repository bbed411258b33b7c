package watershed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"

	"github.com/hydrotools/antecedent/internal/geo"
	"github.com/hydrotools/antecedent/internal/models"
)

// A 1x1 degree square around the test point.
const wbdResponse = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"huc12": "180201041101"},
    "geometry": {
      "type": "Polygon",
      "coordinates": [[[-122, 38], [-121, 38], [-121, 39], [-122, 39], [-122, 38]]]
    }
  }]
}`

func testServer(t *testing.T, capture *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = r.URL.String()
		}
		fmt.Fprint(w, wbdResponse)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSampleHUC12(t *testing.T) {
	var gotURL string
	srv := testServer(t, &gotURL)

	s := NewWBDSampler()
	s.SetBaseURL(srv.URL)
	s.SetSeed(1)

	sampled, err := s.Sample(context.Background(), 38.5, -121.5, models.ScopeHUC12)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if sampled.HUC != "180201041101" {
		t.Errorf("HUC = %q, want 180201041101", sampled.HUC)
	}
	// Query goes to the HUC12 layer with the right field.
	wantPrefix := "/6/query?"
	if gotURL[:len(wantPrefix)] != wantPrefix {
		t.Errorf("query path = %s, want prefix %s", gotURL, wantPrefix)
	}

	if sampled.AreaSqMi < 3000 || sampled.AreaSqMi > 4500 {
		t.Errorf("AreaSqMi = %v, want roughly one square degree at 38.5N", sampled.AreaSqMi)
	}
	if len(sampled.Points) != maxPoints {
		t.Errorf("got %d points, want clamp at %d", len(sampled.Points), maxPoints)
	}
	for _, p := range sampled.Points {
		if p.Latitude < 38 || p.Latitude > 39 || p.Longitude < -122 || p.Longitude > -121 {
			t.Fatalf("point (%v, %v) outside boundary", p.Latitude, p.Longitude)
		}
	}
}

func TestSampleDeterministicWithSeed(t *testing.T) {
	srv := testServer(t, nil)

	run := func() []models.SamplingPoint {
		s := NewWBDSampler()
		s.SetBaseURL(srv.URL)
		s.SetSeed(42)
		sampled, err := s.Sample(context.Background(), 38.5, -121.5, models.ScopeHUC12)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		return sampled.Points
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSampleRejectsSinglePointScope(t *testing.T) {
	s := NewWBDSampler()
	if _, err := s.Sample(context.Background(), 38.5, -121.5, models.ScopeSinglePoint); err == nil {
		t.Fatalf("want error for scope without a WBD layer")
	}
}

func TestSampleNoFeature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"FeatureCollection","features":[]}`)
	}))
	defer srv.Close()

	s := NewWBDSampler()
	s.SetBaseURL(srv.URL)
	if _, err := s.Sample(context.Background(), 0, 0, models.ScopeHUC8); err == nil {
		t.Fatalf("want error when no watershed contains the point")
	}
}

func TestSampleShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	square := &shp.Polygon{
		Box:       shp.Box{MinX: -122, MinY: 38, MaxX: -121.98, MaxY: 38.02},
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: -122, Y: 38}, {X: -121.98, Y: 38}, {X: -121.98, Y: 38.02}, {X: -122, Y: 38.02}, {X: -122, Y: 38},
		},
	}
	w.Write(square)
	w.Close()

	s := NewWBDSampler()
	s.SetSeed(7)
	sampled, err := s.SampleShapefile(38.01, -121.99, path)
	if err != nil {
		t.Fatalf("SampleShapefile: %v", err)
	}
	if sampled.HUC != "" {
		t.Errorf("custom polygon HUC = %q, want empty", sampled.HUC)
	}
	// A square this small sits under the minimum-points area threshold.
	if len(sampled.Points) != minPoints {
		t.Errorf("got %d points, want %d", len(sampled.Points), minPoints)
	}
	for _, p := range sampled.Points {
		if !geo.PointInRing(geo.Point{X: p.Longitude, Y: p.Latitude}, []geo.Point{
			{X: -122, Y: 38}, {X: -121.98, Y: 38}, {X: -121.98, Y: 38.02}, {X: -122, Y: 38.02},
		}) {
			t.Fatalf("point (%v, %v) outside square", p.Latitude, p.Longitude)
		}
	}
}

func TestGeoJSONRingsMultiPolygon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"huc8": "18020104"},
    "geometry": {
      "type": "MultiPolygon",
      "coordinates": [
        [[[-122, 38], [-121, 38], [-121, 39], [-122, 39], [-122, 38]]],
        [[[-120, 38], [-119.9, 38], [-119.9, 38.1], [-120, 38.1], [-120, 38]]]
      ]
    }
  }]
}`)
	}))
	defer srv.Close()

	s := NewWBDSampler()
	s.SetBaseURL(srv.URL)
	s.SetSeed(3)
	sampled, err := s.Sample(context.Background(), 38.5, -121.5, models.ScopeHUC8)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if sampled.HUC != "18020104" {
		t.Errorf("HUC = %q, want 18020104", sampled.HUC)
	}
	if len(sampled.Points) == 0 {
		t.Errorf("no points sampled from multipolygon")
	}
}
