package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AccountRole distinguishes patient accounts from pharmacy owners
type AccountRole string

const (
	AccountRolePatient  AccountRole = "patient"
	AccountRolePharmacy AccountRole = "pharmacy"
)

// Account is the authenticated caller as seen by the pharmacy reconciler.
// PharmacyID is a cached reference that may be missing or stale; the
// pharmacies table keyed by owner is authoritative.
type Account struct {
	ID              string                  `json:"id" db:"id"`
	Role            AccountRole             `json:"role" db:"role"`
	PharmacyID      *string                 `json:"pharmacy_id,omitempty" db:"pharmacy_id"`
	PendingPharmacy *PendingPharmacyProfile `json:"pending_pharmacy,omitempty" db:"pending_pharmacy"`
	CreatedAt       time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at" db:"updated_at"`
}

// PendingPharmacyProfile is pharmacy data captured at signup and not yet promoted
type PendingPharmacyProfile struct {
	Name          string `json:"name"`
	LicenseNumber string `json:"license"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Phone         string `json:"phone"`
}

// Usable reports whether every field is present. A partial profile counts as absent.
func (p *PendingPharmacyProfile) Usable() bool {
	if p == nil {
		return false
	}
	for _, v := range []string{p.Name, p.LicenseNumber, p.Address, p.City, p.State, p.Phone} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// ToPharmacy builds the pharmacy record promoted from this profile. The
// caller assigns the ID.
func (p *PendingPharmacyProfile) ToPharmacy(ownerID string) *Pharmacy {
	return &Pharmacy{
		OwnerID:       ownerID,
		Name:          strings.TrimSpace(p.Name),
		LicenseNumber: strings.TrimSpace(p.LicenseNumber),
		Address:       strings.TrimSpace(p.Address),
		City:          strings.TrimSpace(p.City),
		State:         strings.TrimSpace(p.State),
		Phone:         strings.TrimSpace(p.Phone),
		IsActive:      true,
	}
}

// Value stores the profile as JSON; a nil profile is stored as NULL.
func (p *PendingPharmacyProfile) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON-encoded profile column.
func (p *PendingPharmacyProfile) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PendingPharmacyProfile{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported pending profile column type %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		*p = PendingPharmacyProfile{}
		return nil
	}
	return json.Unmarshal(raw, p)
}
