package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransportType string

const (
	TransportFOL   TransportType = "TRANSPORT_FOL"
	TransportDepot TransportType = "TRANSPORT_DEPOT"
)

const DefaultTripDescription = "FACTOM FOS"

// DealerTrip is one priced despatch to a dealer. WeightMT, WeightMTK and
// Amount are derived from NoBags, KM and the owning group's slab.
type DealerTrip struct {
	ID            int64           `json:"id" db:"id"`
	Key           string          `json:"key"`
	DealerID      *int64          `json:"dealer_id,omitempty" db:"dealer_id"`
	DespatchedTo  string          `json:"despatched_to" db:"despatched_to"`
	MDANumber     string          `json:"mda_number" db:"mda_number"`
	Date          string          `json:"date" db:"date"`
	NoBags        int             `json:"no_bags" db:"no_bags"`
	KM            decimal.Decimal `json:"km" db:"km"`
	Description   string          `json:"description" db:"description"`
	Remarks       *string         `json:"remarks,omitempty" db:"remarks"`
	WeightMT      decimal.Decimal `json:"weight_mt" db:"mt"`
	WeightMTK     decimal.Decimal `json:"weight_mtk" db:"mtk"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	ServiceBillID *int64          `json:"service_bill_id,omitempty" db:"service_bill_id"`
}

// SlabGroup holds the trips of one destination entry priced under one slab.
// Rate and RateSlab.IsMTK are a snapshot taken when the slab was bound.
type SlabGroup struct {
	ID          int64           `json:"id" db:"id"`
	Key         string          `json:"key"`
	RateSlab    *RateSlab       `json:"rate_slab"`
	Rate        decimal.Decimal `json:"rate" db:"rate"`
	PrintPageNo *int            `json:"print_page_no,omitempty" db:"print_page_no"`
	Trips       []DealerTrip    `json:"trips"`
}

type Totals struct {
	Bags   int             `json:"total_bags"`
	MT     decimal.Decimal `json:"total_mt"`
	MTK    decimal.Decimal `json:"total_mtk"`
	Amount decimal.Decimal `json:"total_amount"`
}

type DestinationEntry struct {
	ID            int64         `json:"id" db:"id"`
	DestinationID int64         `json:"destination_id" db:"destination_id"`
	TransportType TransportType `json:"transport_type" db:"transport_type"`
	Date          string        `json:"date" db:"date"`
	BillNumber    *string       `json:"bill_number,omitempty" db:"bill_number"`
	LetterNote    *string       `json:"letter_note,omitempty" db:"letter_note"`
	ToAddress     *string       `json:"to_address,omitempty" db:"to_address"`
	SlabGroups    []SlabGroup   `json:"slab_groups"`
	ServiceBillID *int64        `json:"service_bill_id,omitempty" db:"service_bill_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time    `json:"updated_at,omitempty" db:"updated_at"`
	PdfCreatedAt  *time.Time    `json:"pdf_created_at,omitempty" db:"pdf_created_at"`
	PdfPath       *string       `json:"pdf_path,omitempty" db:"pdf_path"`

	// Read side only
	Destination *Destination `json:"destination,omitempty"`
	Totals      *Totals      `json:"totals,omitempty"`
}
