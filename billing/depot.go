package billing

import (
	"github.com/shopspring/decimal"

	"freighterp/models"
)

// DepotSelection is the provisional choice of depot rows for one bill.
type DepotSelection struct {
	rows     []models.DepotRow
	selected map[int64]bool
}

// NewDepotSelection starts from ids; ids not among rows are returned
// separately so the caller can report them.
func NewDepotSelection(rows []models.DepotRow, ids []int64) (*DepotSelection, []int64) {
	s := &DepotSelection{rows: rows, selected: make(map[int64]bool, len(ids))}
	known := make(map[int64]bool, len(rows))
	for _, r := range rows {
		known[r.ID] = true
	}
	for _, id := range ids {
		if known[id] {
			s.selected[id] = true
		}
	}
	return s, missingIDs(ids, known)
}

func (s *DepotSelection) Toggle(id int64) error {
	for _, r := range s.rows {
		if r.ID == id {
			if s.selected[id] {
				delete(s.selected, id)
			} else {
				s.selected[id] = true
			}
			return nil
		}
	}
	return invalid("trip_id", "trip %d is not available for depot billing", id)
}

// AllSelected reports whether every row is selected.
func (s *DepotSelection) AllSelected() bool {
	return len(s.rows) > 0 && len(s.selected) == len(s.rows)
}

// SelectAll clears the selection when it already equals all rows and
// selects every row otherwise.
func (s *DepotSelection) SelectAll() {
	if s.AllSelected() {
		s.selected = map[int64]bool{}
		return
	}
	s.selected = make(map[int64]bool, len(s.rows))
	for _, r := range s.rows {
		s.selected[r.ID] = true
	}
}

// IDs returns the selected trip ids in row order.
func (s *DepotSelection) IDs() []int64 {
	ids := []int64{}
	for _, r := range s.rows {
		if s.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (s *DepotSelection) Totals() (qty, amount decimal.Decimal) {
	return DepotTotals(s.rows, s.IDs())
}

// Section builds the depot section for the current selection.
func (s *DepotSelection) Section(billNumber string) models.DepotSection {
	qty, amount := s.Totals()
	return models.DepotSection{
		BillNumber:       billNumber,
		SelectedTripIDs:  s.IDs(),
		TotalDepotQty:    qty,
		TotalDepotAmount: amount,
	}
}

// DepotTotals sums qty_mt and amount over the rows whose id is in ids.
func DepotTotals(rows []models.DepotRow, ids []int64) (qty, amount decimal.Decimal) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	qty, amount = decimal.Zero, decimal.Zero
	for _, r := range rows {
		if want[r.ID] {
			qty = qty.Add(r.QtyMT)
			amount = amount.Add(r.Amount)
			delete(want, r.ID)
		}
	}
	return qty, amount
}
