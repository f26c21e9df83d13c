package models

import "github.com/shopspring/decimal"

type Destination struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Place       *string `json:"place,omitempty" db:"place"`
	Description *string `json:"description,omitempty" db:"description"`
	IsGarage    bool    `json:"is_garage" db:"is_garage"`
}

// DisplayPlace is what bills print for a destination.
func (d Destination) DisplayPlace() string {
	if d.Place != nil && *d.Place != "" {
		return *d.Place
	}
	return d.Name
}

type Place struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Distance      decimal.Decimal `json:"distance" db:"distance"`
	District      *string         `json:"district,omitempty" db:"district"`
	DestinationID *int64          `json:"destination_id,omitempty" db:"destination_id"`
}

type Dealer struct {
	ID      int64   `json:"id" db:"id"`
	Code    string  `json:"code" db:"code"`
	Name    string  `json:"name" db:"name"`
	Address *string `json:"address,omitempty" db:"address"`
	Pincode *string `json:"pincode,omitempty" db:"pincode"`
	Mobile  *string `json:"mobile,omitempty" db:"mobile"`
	Active  bool    `json:"active" db:"active"`
}

// DealerNear is one dealer/place pair reachable from a destination.
type DealerNear struct {
	DealerID   int64           `json:"dealer_id"`
	PlaceID    int64           `json:"place_id"`
	DistanceKM decimal.Decimal `json:"distance_km"`
	DealerName string          `json:"dealer_name"`
	PlaceName  string          `json:"place_name"`
}
