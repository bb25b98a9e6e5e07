// Package geo provides geolocation utilities for distance ranking and
// privacy-preserving location display.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distance.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm computes the haversine great-circle distance in kilometers
// between two coordinate pairs given in degrees.
//
// The function is total over the float domain: malformed inputs (NaN,
// out-of-range coordinates) propagate as NaN rather than an error. Callers
// must treat a NaN result as "distance unknown" and exclude the pair from
// distance-based filtering.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	la1 := toRadians(lat1)
	la2 := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	a := sinLat*sinLat + math.Cos(la1)*math.Cos(la2)*sinLng*sinLng
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Distance computes the haversine distance in kilometers between two points.
func Distance(a, b Point) float64 {
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ValidCoordinates reports whether lat/lng form a usable coordinate pair:
// finite numbers within the WGS84 degree ranges.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
