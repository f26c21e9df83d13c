package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RateSlab is a distance band [FromKM, ToKM) priced at Rate.
// IsMTK selects rate * MT x KM instead of rate * MT.
type RateSlab struct {
	ID     int64           `json:"id" bson:"id" db:"id"`
	FromKM decimal.Decimal `json:"from_km" bson:"from_km" db:"from_km"`
	ToKM   decimal.Decimal `json:"to_km" bson:"to_km" db:"to_km"`
	Rate   decimal.Decimal `json:"rate" bson:"rate" db:"rate"`
	IsMTK  bool            `json:"is_mtk" bson:"is_mtk" db:"is_mtk"`
}

func (s RateSlab) Label() string {
	return fmt.Sprintf("%s-%s km", s.FromKM.String(), s.ToKM.String())
}
