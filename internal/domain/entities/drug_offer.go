package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold applies when a listing has no threshold of its own.
const DefaultLowStockThreshold = 10

// StockStatus is derived from quantity and threshold and never stored.
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusInStock    StockStatus = "in_stock"
)

// DrugOffer is a medication listing owned by one pharmacy
type DrugOffer struct {
	ID                   string          `json:"id" db:"id"`
	PharmacyID           string          `json:"pharmacy_id" db:"pharmacy_id"`
	Name                 string          `json:"name" db:"name"`
	GenericName          string          `json:"generic_name,omitempty" db:"generic_name"`
	BrandName            string          `json:"brand_name,omitempty" db:"brand_name"`
	Category             string          `json:"category,omitempty" db:"category"`
	DosageForm           string          `json:"dosage_form,omitempty" db:"dosage_form"`
	Strength             string          `json:"strength,omitempty" db:"strength"`
	UnitPrice            decimal.Decimal `json:"unit_price" db:"unit_price"`
	QuantityInStock      int             `json:"quantity_in_stock" db:"quantity_in_stock"`
	LowStockThreshold    int             `json:"low_stock_threshold" db:"low_stock_threshold"`
	RequiresPrescription bool            `json:"requires_prescription" db:"requires_prescription"`
	Manufacturer         string          `json:"manufacturer,omitempty" db:"manufacturer"`
	ExpiryDate           *time.Time      `json:"expiry_date,omitempty" db:"expiry_date"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// StockStatusFor applies the stock partition: 0 is out, (0, threshold] is low, above is in.
func StockStatusFor(quantity, threshold int) StockStatus {
	switch {
	case quantity <= 0:
		return StockStatusOutOfStock
	case quantity <= threshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// StockStatus returns the derived stock status of the offer
func (o *DrugOffer) StockStatus() StockStatus {
	return StockStatusFor(o.QuantityInStock, o.LowStockThreshold)
}

// InStock reports whether at least one unit is available
func (o *DrugOffer) InStock() bool {
	return o.QuantityInStock > 0
}

// Normalize enforces the listing invariants on data read from the store. It
// reports whether a negative quantity had to be clamped.
func (o *DrugOffer) Normalize() (clamped bool) {
	if o.QuantityInStock < 0 {
		o.QuantityInStock = 0
		clamped = true
	}
	if o.LowStockThreshold < 0 {
		o.LowStockThreshold = DefaultLowStockThreshold
	}
	return clamped
}
