// Package geo provides geographic utility functions for the booking engine.
//
// All distance calculations use the Haversine formula on WGS-84 coordinates
// and report statute miles, the unit the fleet is priced in. Travel time is
// estimated with a constant average speed; the routing service supplies real
// durations when it is reachable.
package geo

import (
	"math"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusMi is the mean radius of Earth in statute miles.
	EarthRadiusMi = 3958.8

	// MetersPerMile converts routed path lengths to miles.
	MetersPerMile = 1609.344

	// AverageSpeedMph is the assumed average door-to-door speed.
	// Used for time estimation when the routing engine is unavailable.
	AverageSpeedMph = 28.0
)

// ─── Distance ───────────────────────────────────────────────

// HaversineMiles returns the great-circle distance between two points in
// statute miles.
//
// Complexity: O(1)
func HaversineMiles(a, b model.Coordinates) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLon*sinLon

	return 2 * EarthRadiusMi * math.Asin(math.Sqrt(h))
}

// MilesFromMeters converts a routed path length in meters to miles.
func MilesFromMeters(meters float64) float64 {
	return meters / MetersPerMile
}

// ─── Time ───────────────────────────────────────────────────

// EstimateTimeMinutes returns the estimated direct travel time between two
// points in minutes, assuming AverageSpeedMph.
//
// Complexity: O(1)
func EstimateTimeMinutes(a, b model.Coordinates) float64 {
	return (HaversineMiles(a, b) / AverageSpeedMph) * 60.0
}

// ─── Rounding ───────────────────────────────────────────────

// RoundMiles rounds a mileage figure to one decimal place, the precision
// quoted to customers.
func RoundMiles(miles float64) float64 {
	return math.Round(miles*10) / 10
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
