package entities

import (
	"github.com/shopspring/decimal"
	"github.com/zatekoja/medfinder/pkg/geo"
)

// SearchQuery is a request-scoped medication search
type SearchQuery struct {
	Term        string   `json:"term"`
	Location    string   `json:"location,omitempty"`
	Category    string   `json:"category,omitempty"`
	InStockOnly bool     `json:"in_stock,omitempty"`
	Latitude    *float64 `json:"lat,omitempty"`
	Longitude   *float64 `json:"lng,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// Origin returns the caller's coordinates when both are present and valid.
func (q *SearchQuery) Origin() (geo.Point, bool) {
	if q.Latitude == nil || q.Longitude == nil {
		return geo.Point{}, false
	}
	p := geo.Point{Latitude: *q.Latitude, Longitude: *q.Longitude}
	if !p.Valid() {
		return geo.Point{}, false
	}
	return p, true
}

// Filters echoes the optional parts of the query back to the caller
func (q *SearchQuery) Filters() SearchFilters {
	return SearchFilters{
		Location:    q.Location,
		Category:    q.Category,
		InStockOnly: q.InStockOnly,
		Latitude:    q.Latitude,
		Longitude:   q.Longitude,
		Limit:       q.Limit,
	}
}

// SearchFilters is the filter echo of a search response
type SearchFilters struct {
	Location    string   `json:"location,omitempty"`
	Category    string   `json:"category,omitempty"`
	InStockOnly bool     `json:"in_stock"`
	Latitude    *float64 `json:"lat,omitempty"`
	Longitude   *float64 `json:"lng,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// RankedOffer is an offer enriched for display
type RankedOffer struct {
	DrugOffer
	Pharmacy      Pharmacy         `json:"pharmacy"`
	Stock         StockStatus      `json:"stock_status"`
	PriceRangeMin *decimal.Decimal `json:"price_range_min"`
	PriceRangeMax *decimal.Decimal `json:"price_range_max"`
	DistanceKm    *float64         `json:"distance_km"`
}

// SearchResult is the envelope returned by a medication search
type SearchResult struct {
	Offers  []RankedOffer `json:"offers"`
	Count   int           `json:"count"`
	Query   string        `json:"query"`
	Filters SearchFilters `json:"filters"`
}
