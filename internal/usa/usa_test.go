package usa

import "testing"

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		want bool
	}{
		{"sacramento valley", 38.2776, -121.8242, true},
		{"florida keys", 24.75, -81.0, true},
		{"northern border", 49.0, -100.0, true},
		{"mexico city", 19.43, -99.13, false},
		{"hawaii", 21.31, -157.86, false},
		{"alaska", 64.2, -149.5, false},
		{"london", 51.5, -0.12, false},
		{"atlantic offshore", 38.0, -60.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}
