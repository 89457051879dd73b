package providers

import (
	"context"
)

// Geocoder converts a postal address to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodedAddress, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// GeocodedAddress is the best match for a geocoded address
type GeocodedAddress struct {
	FormattedAddress string      `json:"formatted_address"`
	Coordinates      Coordinates `json:"coordinates"`
}
