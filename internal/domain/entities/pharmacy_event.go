package entities

import (
	"time"

	"github.com/google/uuid"
)

// PharmacyEventType represents the type of pharmacy event
type PharmacyEventType string

const (
	// PharmacyEventProvisioned is emitted once when a pending profile is promoted
	PharmacyEventProvisioned PharmacyEventType = "pharmacy.provisioned"
)

// PharmacyEvent is published on the event bus after pharmacy lifecycle changes
type PharmacyEvent struct {
	ID         string            `json:"id"`
	Type       PharmacyEventType `json:"type"`
	PharmacyID string            `json:"pharmacy_id"`
	OwnerID    string            `json:"owner_id"`
	City       string            `json:"city,omitempty"`
	State      string            `json:"state,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewPharmacyEvent creates a new pharmacy event
func NewPharmacyEvent(eventType PharmacyEventType, pharmacy *Pharmacy) *PharmacyEvent {
	return &PharmacyEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		PharmacyID: pharmacy.ID,
		OwnerID:    pharmacy.OwnerID,
		City:       pharmacy.City,
		State:      pharmacy.State,
		Timestamp:  time.Now().UTC(),
	}
}
