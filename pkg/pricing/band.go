// Package pricing derives the display price range shown next to each offer.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	// Spread is the fraction of the unit price added on each side of the band.
	Spread = decimal.NewFromFloat(0.05)

	// Bands are rounded to the nearest 10 currency units, half away from zero.
	// This is a product choice and must stay stable for existing clients.
	roundingPlaces int32 = -1
)

// Range is a display price range.
type Range struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Band returns the price range for p, or nil when p is negative.
func Band(p decimal.Decimal) *Range {
	if p.IsNegative() {
		return nil
	}

	delta := p.Mul(Spread)
	lo := p.Sub(delta).Round(roundingPlaces)
	if lo.IsNegative() {
		lo = decimal.Zero
	}
	hi := p.Add(delta).Round(roundingPlaces)

	return &Range{Min: lo, Max: hi}
}

// BandFromFloat is Band for prices that arrive as floats. NaN, infinities and
// negative values yield nil.
func BandFromFloat(p float64) *Range {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return nil
	}
	return Band(decimal.NewFromFloat(p))
}
