package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultProduct = "FACTOMFOS"

type ServiceBill struct {
	ID             int64            `json:"id" db:"id"`
	BillDate       *string          `json:"bill_date,omitempty" db:"bill_date"`
	ToAddress      string           `json:"to_address" db:"to_address"`
	LetterNote     string           `json:"letter_note" db:"letter_note"`
	DateOfClearing string           `json:"date_of_clearing" db:"date_of_clearing"`
	Product        string           `json:"product" db:"product"`
	HSNCode        string           `json:"hsn_code" db:"hsn_code"`
	Year           string           `json:"year" db:"year"`
	Handling       *HandlingSection `json:"handling"`
	Depot          *DepotSection    `json:"depot"`
	FOL            *FOLSection      `json:"fol"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty" db:"updated_at"`
	PdfCreatedAt   *time.Time       `json:"pdf_created_at,omitempty" db:"pdf_created_at"`
	PdfPath        *string          `json:"pdf_path,omitempty" db:"pdf_path"`
}

// HandlingSection fields after Rate are derived.
type HandlingSection struct {
	BillNumber      string          `json:"bill_number" db:"bill_number"`
	Particulars     string          `json:"particulars" db:"particulars"`
	QtyShipped      decimal.Decimal `json:"qty_shipped" db:"qty_shipped"`
	FOLTotal        decimal.Decimal `json:"fol_total" db:"fol_total"`
	DepotTotal      decimal.Decimal `json:"depot_total" db:"depot_total"`
	RHSales         decimal.Decimal `json:"rh_sales" db:"rh_sales"`
	Rate            decimal.Decimal `json:"rate" db:"rate"`
	QtyReceived     decimal.Decimal `json:"qty_received" db:"qty_received"`
	Shortage        decimal.Decimal `json:"shortage" db:"shortage"`
	BillAmount      decimal.Decimal `json:"bill_amount" db:"bill_amount"`
	CGST            decimal.Decimal `json:"cgst" db:"cgst"`
	SGST            decimal.Decimal `json:"sgst" db:"sgst"`
	TotalBillAmount decimal.Decimal `json:"total_bill_amount" db:"total_bill_amount"`
}

type DepotSection struct {
	BillNumber       string          `json:"bill_number" db:"bill_number"`
	SelectedTripIDs  []int64         `json:"selected_trip_ids"`
	TotalDepotQty    decimal.Decimal `json:"total_depot_qty" db:"total_depot_qty"`
	TotalDepotAmount decimal.Decimal `json:"total_depot_amount" db:"total_depot_amount"`
}

type FOLState string

const (
	FOLStateSelect  FOLState = "select"
	FOLStatePreview FOLState = "preview"
)

type FOLSection struct {
	BillNumber       string          `json:"bill_number" db:"bill_number"`
	RHQty            decimal.Decimal `json:"rh_qty" db:"rh_qty"`
	SelectedEntryIDs []int64         `json:"selected_entry_ids"`
	State            FOLState        `json:"state"`
	Slabs            []SlabPreview   `json:"slabs" db:"slabs"`
	GrandTotalQty    decimal.Decimal `json:"grand_total_qty" db:"grand_total_qty"`
	GrandTotalAmount decimal.Decimal `json:"grand_total_amount" db:"grand_total_amount"`
}

type DestinationPreview struct {
	DestinationID    int64           `json:"destination_id"`
	DestinationPlace string          `json:"destination_place"`
	QtyMT            decimal.Decimal `json:"qty_mt"`
	QtyMTK           decimal.Decimal `json:"qty_mtk"`
	Amount           decimal.Decimal `json:"amount"`
}

type SlabPreview struct {
	RangeSlab        RateSlab             `json:"range_slab"`
	Rate             decimal.Decimal      `json:"rate"`
	Destinations     []DestinationPreview `json:"destinations"`
	RangeTotalQty    decimal.Decimal      `json:"range_total_qty"`
	RangeTotalMTK    decimal.Decimal      `json:"range_total_mtk"`
	RangeTotalAmount decimal.Decimal      `json:"range_total_amount"`
}

// FOLPreview is the result of the slab-wise FOL aggregation.
type FOLPreview struct {
	Slabs            []SlabPreview   `json:"slabs"`
	RHQty            decimal.Decimal `json:"rh_qty"`
	GrandTotalQty    decimal.Decimal `json:"grand_total_qty"`
	GrandTotalAmount decimal.Decimal `json:"grand_total_amount"`
}
