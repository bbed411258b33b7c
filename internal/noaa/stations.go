package noaa

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hydrotools/antecedent/internal/models"
)

// ghcnd-stations.txt layout: ID(1-11) LATITUDE(13-20) LONGITUDE(22-30)
// ELEVATION(32-37) STATE(39-40) NAME(42-71).
const stationsMinLen = 71

// ParseStations reads the GHCN station inventory. Lines that do not parse as
// coordinates are skipped rather than failing the whole inventory; NOAA has
// shipped malformed rows before.
func ParseStations(r io.Reader) ([]models.Station, error) {
	var stations []models.Station
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < stationsMinLen {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(line[12:20]), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(line[21:30]), 64)
		if err != nil {
			continue
		}
		elev, err := strconv.ParseFloat(strings.TrimSpace(line[31:37]), 64)
		if err != nil {
			elev = 0
		}
		stations = append(stations, models.Station{
			StationID: line[0:11],
			Latitude:  lat,
			Longitude: lon,
			Elevation: elev,
			State:     strings.TrimSpace(line[38:40]),
			Name:      strings.TrimSpace(line[41:71]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan stations: %w", err)
	}
	return stations, nil
}
