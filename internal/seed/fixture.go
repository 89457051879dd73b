// Package seed reads YAML fixtures for local development and demos.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zatekoja/medfinder/internal/adapters/database"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk fixture format
type Document struct {
	Accounts   []AccountDef  `yaml:"accounts"`
	Pharmacies []PharmacyDef `yaml:"pharmacies"`
}

// AccountDef is a signed-up account, optionally carrying a pending pharmacy profile
type AccountDef struct {
	ID         string              `yaml:"id"`
	Role       string              `yaml:"role"`
	PharmacyID string              `yaml:"pharmacy_id,omitempty"`
	Pending    *PendingPharmacyDef `yaml:"pending_pharmacy,omitempty"`
}

// PendingPharmacyDef mirrors the signup form
type PendingPharmacyDef struct {
	Name    string `yaml:"name"`
	License string `yaml:"license"`
	Address string `yaml:"address"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	Phone   string `yaml:"phone"`
}

// PharmacyDef is a provisioned pharmacy with its listings
type PharmacyDef struct {
	ID        string     `yaml:"id"`
	OwnerID   string     `yaml:"owner_id"`
	Name      string     `yaml:"name"`
	License   string     `yaml:"license"`
	Address   string     `yaml:"address"`
	City      string     `yaml:"city"`
	State     string     `yaml:"state"`
	Phone     string     `yaml:"phone"`
	Latitude  *float64   `yaml:"latitude,omitempty"`
	Longitude *float64   `yaml:"longitude,omitempty"`
	Inactive  bool       `yaml:"inactive,omitempty"`
	Offers    []OfferDef `yaml:"offers"`
}

// OfferDef is one medication listing. Price is a decimal string.
type OfferDef struct {
	ID                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	GenericName          string `yaml:"generic_name,omitempty"`
	BrandName            string `yaml:"brand_name,omitempty"`
	Category             string `yaml:"category,omitempty"`
	DosageForm           string `yaml:"dosage_form,omitempty"`
	Strength             string `yaml:"strength,omitempty"`
	Price                string `yaml:"price"`
	Quantity             int    `yaml:"quantity"`
	LowStockThreshold    *int   `yaml:"low_stock_threshold,omitempty"`
	RequiresPrescription bool   `yaml:"requires_prescription,omitempty"`
	Manufacturer         string `yaml:"manufacturer,omitempty"`
	ExpiryDate           string `yaml:"expiry_date,omitempty"`
}

// LoadFile reads and converts a fixture file
func LoadFile(path string) (database.FixtureSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return database.FixtureSet{}, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a fixture document. Unknown fields are rejected so typos
// surface instead of silently dropping data.
func Parse(r io.Reader) (database.FixtureSet, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return database.FixtureSet{}, fmt.Errorf("decode fixture: %w", err)
	}
	return doc.FixtureSet()
}

// FixtureSet converts the document into store records
func (d *Document) FixtureSet() (database.FixtureSet, error) {
	var set database.FixtureSet

	for i, a := range d.Accounts {
		if strings.TrimSpace(a.ID) == "" {
			return set, fmt.Errorf("accounts[%d]: id is required", i)
		}
		account := &entities.Account{
			ID:   a.ID,
			Role: entities.AccountRole(strings.ToLower(a.Role)),
		}
		if account.Role == "" {
			account.Role = entities.AccountRolePatient
		}
		if a.PharmacyID != "" {
			id := a.PharmacyID
			account.PharmacyID = &id
		}
		if a.Pending != nil {
			account.PendingPharmacy = &entities.PendingPharmacyProfile{
				Name:          a.Pending.Name,
				LicenseNumber: a.Pending.License,
				Address:       a.Pending.Address,
				City:          a.Pending.City,
				State:         a.Pending.State,
				Phone:         a.Pending.Phone,
			}
		}
		set.Accounts = append(set.Accounts, account)
	}

	for i, p := range d.Pharmacies {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.OwnerID) == "" {
			return set, fmt.Errorf("pharmacies[%d]: id and owner_id are required", i)
		}
		pharmacy := &entities.Pharmacy{
			ID:            p.ID,
			OwnerID:       p.OwnerID,
			Name:          p.Name,
			LicenseNumber: p.License,
			Address:       p.Address,
			City:          p.City,
			State:         p.State,
			Phone:         p.Phone,
			IsActive:      !p.Inactive,
		}
		if p.Latitude != nil && p.Longitude != nil {
			pharmacy.Location = &entities.Location{Latitude: *p.Latitude, Longitude: *p.Longitude}
		}
		set.Pharmacies = append(set.Pharmacies, pharmacy)

		for j, o := range p.Offers {
			offer, err := o.toEntity(p.ID)
			if err != nil {
				return set, fmt.Errorf("pharmacies[%d].offers[%d]: %w", i, j, err)
			}
			set.Offers = append(set.Offers, offer)
		}
	}

	return set, nil
}

func (o OfferDef) toEntity(pharmacyID string) (*entities.DrugOffer, error) {
	if strings.TrimSpace(o.ID) == "" || strings.TrimSpace(o.Name) == "" {
		return nil, fmt.Errorf("id and name are required")
	}
	price, err := decimal.NewFromString(o.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", o.Price, err)
	}

	offer := &entities.DrugOffer{
		ID:                   o.ID,
		PharmacyID:           pharmacyID,
		Name:                 o.Name,
		GenericName:          o.GenericName,
		BrandName:            o.BrandName,
		Category:             o.Category,
		DosageForm:           o.DosageForm,
		Strength:             o.Strength,
		UnitPrice:            price,
		QuantityInStock:      o.Quantity,
		LowStockThreshold:    entities.DefaultLowStockThreshold,
		RequiresPrescription: o.RequiresPrescription,
		Manufacturer:         o.Manufacturer,
	}
	if o.LowStockThreshold != nil {
		offer.LowStockThreshold = *o.LowStockThreshold
	}
	if o.ExpiryDate != "" {
		expiry, err := time.Parse("2006-01-02", o.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expiry_date %q: %w", o.ExpiryDate, err)
		}
		offer.ExpiryDate = &expiry
	}
	return offer, nil
}
