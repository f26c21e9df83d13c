package models

import "github.com/shopspring/decimal"

// DepotRow is one dealer trip of a depot destination entry offered for billing.
type DepotRow struct {
	ID                 int64           `json:"id"`
	DestinationEntryID int64           `json:"destination_entry_id"`
	Destination        string          `json:"destination"`
	Date               string          `json:"date"`
	KM                 decimal.Decimal `json:"km"`
	QtyMT              decimal.Decimal `json:"qty_mt"`
	MTKM               decimal.Decimal `json:"mt_km"`
	Rate               decimal.Decimal `json:"rate"`
	Amount             decimal.Decimal `json:"amount"`
	ServiceBillID      *int64          `json:"service_bill_id,omitempty"`
}

// FOLCandidateEntry is a FOL destination entry offered for billing.
type FOLCandidateEntry struct {
	ID            int64           `json:"id"`
	Destination   Destination     `json:"destination"`
	Date          string          `json:"date"`
	BillNumber    *string         `json:"bill_number,omitempty"`
	RateRanges    []string        `json:"rate_ranges"`
	TotalMT       decimal.Decimal `json:"total_mt"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ServiceBillID *int64          `json:"service_bill_id,omitempty"`
}
