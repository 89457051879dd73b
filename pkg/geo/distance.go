// Package geo holds great-circle helpers used to rank pharmacies by proximity.
package geo

import "math"

const earthRadiusKm = 6371.0

// Point is a coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether p is finite and inside the latitude/longitude ranges.
// DistanceKm is undefined for points that are not valid.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
		math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// DistanceKm returns the Haversine distance between a and b, rounded half-up to 0.1 km.
func DistanceKm(a, b Point) float64 {
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(a.Latitude))*math.Cos(degreesToRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return roundTenth(earthRadiusKm * c)
}

func roundTenth(km float64) float64 {
	return math.Floor(km*10+0.5) / 10
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
