package geo

import (
	"math"
	"testing"
)

func square(minX, minY, maxX, maxY float64) []Point {
	return []Point{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}
}

func TestPointInRing(t *testing.T) {
	ring := square(-122, 38, -121, 39)

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{-121.5, 38.5}, true},
		{"outside west", Point{-123, 38.5}, false},
		{"outside north", Point{-121.5, 39.5}, false},
		{"near corner inside", Point{-121.99, 38.01}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInRing(tt.p, ring); got != tt.want {
				t.Errorf("PointInRing(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointInPolygon_Hole(t *testing.T) {
	rings := [][]Point{
		square(-122, 38, -121, 39),
		square(-121.6, 38.4, -121.4, 38.6),
	}
	if !PointInPolygon(Point{-121.9, 38.9}, rings) {
		t.Error("point in outer ring should be inside")
	}
	if PointInPolygon(Point{-121.5, 38.5}, rings) {
		t.Error("point in hole should be outside")
	}
}

func TestBounds(t *testing.T) {
	rings := [][]Point{square(-122, 38, -121, 39)}
	minX, minY, maxX, maxY := Bounds(rings)
	if minX != -122 || minY != 38 || maxX != -121 || maxY != 39 {
		t.Errorf("Bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}
}

func TestAreaSquareMiles(t *testing.T) {
	// One degree square at ~38.5N: 69mi tall, 69*cos(38.5)mi wide.
	rings := [][]Point{square(-122, 38, -121, 39)}
	got := AreaSquareMiles(rings)
	want := 69.0 * 69.0 * math.Cos(38.5*math.Pi/180)
	if math.Abs(got-want) > want*0.01 {
		t.Errorf("AreaSquareMiles = %.1f, want ~%.1f", got, want)
	}

	if AreaSquareMiles(nil) != 0 {
		t.Error("empty polygon area should be 0")
	}
}
