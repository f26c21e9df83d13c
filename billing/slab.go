package billing

import (
	"sort"

	"github.com/shopspring/decimal"

	"freighterp/models"
)

// ValidateSlab checks a single band.
func ValidateSlab(s models.RateSlab) error {
	if s.FromKM.IsNegative() {
		return invalid("from_km", "must not be negative")
	}
	if !s.FromKM.LessThan(s.ToKM) {
		return invalid("to_km", "must be greater than from_km")
	}
	if s.Rate.IsNegative() {
		return invalid("rate", "must not be negative")
	}
	return nil
}

// CheckOverlap reports whether candidate overlaps any slab in table other
// than itself. Bands are half open, so 0-20 and 20-40 do not overlap.
func CheckOverlap(table []models.RateSlab, candidate models.RateSlab) error {
	for _, s := range table {
		if candidate.ID != 0 && s.ID == candidate.ID {
			continue
		}
		if candidate.FromKM.LessThan(s.ToKM) && s.FromKM.LessThan(candidate.ToKM) {
			return invalid("from_km", "overlaps slab %s", s.Label())
		}
	}
	return nil
}

// SortSlabs orders slabs by FromKM ascending.
func SortSlabs(table []models.RateSlab) {
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].FromKM.LessThan(table[j].FromKM)
	})
}

// SlabFor finds the band containing km.
func SlabFor(table []models.RateSlab, km decimal.Decimal) (models.RateSlab, bool) {
	for _, s := range table {
		if !km.LessThan(s.FromKM) && km.LessThan(s.ToKM) {
			return s, true
		}
	}
	return models.RateSlab{}, false
}
