package entities

import (
	"time"

	"github.com/zatekoja/medfinder/pkg/geo"
)

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Point converts the location for distance calculations
func (l Location) Point() geo.Point {
	return geo.Point{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Pharmacy represents a seller of medications
type Pharmacy struct {
	ID            string    `json:"id" db:"id"`
	OwnerID       string    `json:"owner_id" db:"owner_id"`
	Name          string    `json:"name" db:"name"`
	LicenseNumber string    `json:"license_number" db:"license_number"`
	Address       string    `json:"address" db:"address"`
	City          string    `json:"city" db:"city"`
	State         string    `json:"state" db:"state"`
	Phone         string    `json:"phone" db:"phone"`
	Location      *Location `json:"location,omitempty" db:"-"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	LogoURL       string    `json:"logo_url,omitempty" db:"logo_url"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// HasCoordinates reports whether the pharmacy can be ranked by distance
func (p *Pharmacy) HasCoordinates() bool {
	return p.Location != nil && p.Location.Point().Valid()
}

// PharmacyOffer is one store row: a listing joined with the pharmacy selling it
type PharmacyOffer struct {
	Offer    DrugOffer
	Pharmacy Pharmacy
}
