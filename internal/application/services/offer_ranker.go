package services

import (
	"math"
	"sort"
	"strings"

	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/pkg/geo"
	"github.com/zatekoja/medfinder/pkg/pricing"
)

// OfferRanker filters, enriches and orders store rows for one search.
// It trusts the store's text match and never re-filters on the term.
type OfferRanker struct{}

// NewOfferRanker creates a new offer ranker
func NewOfferRanker() *OfferRanker {
	return &OfferRanker{}
}

// Rank runs the ranking pipeline over rows in store order.
func (r *OfferRanker) Rank(rows []*entities.PharmacyOffer, query *entities.SearchQuery) []entities.RankedOffer {
	origin, hasOrigin := query.Origin()
	location := strings.ToLower(strings.TrimSpace(query.Location))

	ranked := make([]entities.RankedOffer, 0, len(rows))
	for _, row := range rows {
		if row == nil || !row.Pharmacy.IsActive {
			continue
		}
		if query.Category != "" && row.Offer.Category != query.Category {
			continue
		}
		if query.InStockOnly && !row.Offer.InStock() {
			continue
		}
		if location != "" && !matchesLocation(&row.Pharmacy, location) {
			continue
		}

		ranked = append(ranked, enrich(row, origin, hasOrigin))
	}

	if hasOrigin {
		sort.SliceStable(ranked, func(i, j int) bool {
			return sortableDistance(ranked[i].DistanceKm) < sortableDistance(ranked[j].DistanceKm)
		})
	}

	return ranked
}

func matchesLocation(p *entities.Pharmacy, needle string) bool {
	return strings.Contains(strings.ToLower(p.City), needle) ||
		strings.Contains(strings.ToLower(p.State), needle)
}

func enrich(row *entities.PharmacyOffer, origin geo.Point, hasOrigin bool) entities.RankedOffer {
	out := entities.RankedOffer{
		DrugOffer: row.Offer,
		Pharmacy:  row.Pharmacy,
		Stock:     row.Offer.StockStatus(),
	}

	if band := pricing.Band(row.Offer.UnitPrice); band != nil {
		out.PriceRangeMin = &band.Min
		out.PriceRangeMax = &band.Max
	}

	if hasOrigin && row.Pharmacy.HasCoordinates() {
		d := geo.DistanceKm(origin, row.Pharmacy.Location.Point())
		if !math.IsNaN(d) && !math.IsInf(d, 0) {
			out.DistanceKm = &d
		}
	}

	return out
}

// sortableDistance places offers without a distance after every offer with one
func sortableDistance(d *float64) float64 {
	if d == nil || math.IsNaN(*d) {
		return math.Inf(1)
	}
	return *d
}
