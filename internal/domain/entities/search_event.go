package entities

import (
	"time"
)

// SearchEvent records one completed medication search for demand analytics.
// Caller coordinates are never stored, only whether they were supplied.
type SearchEvent struct {
	ID          string    `json:"id" db:"id"`
	Term        string    `json:"term" db:"term"`
	Location    string    `json:"location,omitempty" db:"location"`
	Category    string    `json:"category,omitempty" db:"category"`
	InStockOnly bool      `json:"in_stock_only" db:"in_stock_only"`
	HasOrigin   bool      `json:"has_origin" db:"has_origin"`
	ResultCount int       `json:"result_count" db:"result_count"`
	LatencyMs   int64     `json:"latency_ms" db:"latency_ms"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UnmetDemand aggregates searches that returned nothing for one term
type UnmetDemand struct {
	Term       string    `json:"term" db:"term"`
	Searches   int       `json:"searches" db:"searches"`
	LastSeenAt time.Time `json:"last_seen_at" db:"last_seen_at"`
}
