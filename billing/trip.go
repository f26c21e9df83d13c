package billing

import (
	"github.com/shopspring/decimal"

	"freighterp/models"
)

// MaxBags is the largest bag count the edit surface accepts (4 digits).
const MaxBags = 9999

// weightPlaces is the rounding applied to MT and MT x KM.
const weightPlaces = 4

var tonnesPerBag = decimal.RequireFromString("0.05")

// TripCost is the derived part of a dealer trip.
type TripCost struct {
	WeightMT  decimal.Decimal `json:"weight_mt"`
	WeightMTK decimal.Decimal `json:"weight_mtk"`
	Amount    decimal.Decimal `json:"amount"`
}

// ComputeTrip prices a trip. Amount is left unrounded.
func ComputeTrip(noBags int, km, rate decimal.Decimal, isMTK bool) TripCost {
	mt := decimal.NewFromInt(int64(noBags)).Mul(tonnesPerBag).Round(weightPlaces)
	mtk := mt.Mul(km).Round(weightPlaces)

	amount := rate.Mul(mt)
	if isMTK {
		amount = rate.Mul(mtk)
	}
	return TripCost{WeightMT: mt, WeightMTK: mtk, Amount: amount}
}

// ValidateTripInput applies the limits of the trip edit surface.
func ValidateTripInput(noBags int, km decimal.Decimal) error {
	if noBags < 0 {
		return invalid("no_bags", "must not be negative")
	}
	if noBags > MaxBags {
		return invalid("no_bags", "must be at most %d", MaxBags)
	}
	if km.IsNegative() {
		return invalid("km", "must not be negative")
	}
	return nil
}

// priceTrip re-derives t from the group it belongs to.
func priceTrip(t *models.DealerTrip, g *models.SlabGroup) {
	isMTK := g.RateSlab != nil && g.RateSlab.IsMTK
	c := ComputeTrip(t.NoBags, t.KM, g.Rate, isMTK)
	t.WeightMT = c.WeightMT
	t.WeightMTK = c.WeightMTK
	t.Amount = c.Amount
}
