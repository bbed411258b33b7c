// Package usa answers whether a coordinate falls inside the continental
// United States, which bounds the coverage of the climate datasets used
// downstream.
package usa

// Extreme points of the contiguous United States.
// http://en.wikipedia.org/wiki/Extreme_points_of_the_United_States
const (
	northLat = 49.3457868
	westLon  = -124.7844079
	eastLon  = -66.9513812
	southLat = 24.7433195
)

// Contains reports whether (lat, lon) is within the continental US boundary.
func Contains(lat, lon float64) bool {
	return lat >= southLat && lat <= northLat && lon >= westLon && lon <= eastLon
}
