package noaa

import (
	"strings"
	"testing"
)

var stationsSample = strings.Join([]string{
	pad71("USC00040232  38.0158 -121.7419   18.3 CA ANTIOCH PUMP PLANT 3"),
	pad71("US1CASL0001  38.2776 -121.8242   24.1 CA DIXON 3.2 WSW"),
	"BADLINE",
	pad71("USC00BADLAT  xx.0000 -121.0000   10.0 CA BROKEN ROW"),
	"",
}, "\n")

func pad71(s string) string {
	for len(s) < 71 {
		s += " "
	}
	return s
}

func TestParseStations(t *testing.T) {
	stations, err := ParseStations(strings.NewReader(stationsSample))
	if err != nil {
		t.Fatalf("ParseStations: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("len = %d, want 2 (short and malformed rows skipped)", len(stations))
	}

	first := stations[0]
	if first.StationID != "USC00040232" {
		t.Errorf("StationID = %q", first.StationID)
	}
	if first.Latitude != 38.0158 || first.Longitude != -121.7419 {
		t.Errorf("coords = %v, %v", first.Latitude, first.Longitude)
	}
	if first.Elevation != 18.3 {
		t.Errorf("Elevation = %v", first.Elevation)
	}
	if first.State != "CA" {
		t.Errorf("State = %q", first.State)
	}
	if first.Name != "ANTIOCH PUMP PLANT 3" {
		t.Errorf("Name = %q", first.Name)
	}

	if stations[1].Name != "DIXON 3.2 WSW" {
		t.Errorf("second Name = %q", stations[1].Name)
	}
}
