package billing

import (
	"context"
	"errors"
	"testing"

	"freighterp/models"
)

func i64(v int64) *int64 { return &v }

func TestEligible(t *testing.T) {
	tests := []struct {
		name      string
		ref       *int64
		excluding *int64
		want      bool
	}{
		{"unbilled, new bill", nil, nil, true},
		{"unbilled, editing", nil, i64(5), true},
		{"billed, new bill", i64(5), nil, false},
		{"billed by edited bill", i64(5), i64(5), true},
		{"billed by another bill", i64(5), i64(6), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Eligible(tc.ref, tc.excluding); got != tc.want {
				t.Errorf("Eligible = %v, want %v", got, tc.want)
			}
		})
	}
}

type staticSource struct {
	depot []models.DepotRow
	fol   []models.FOLCandidateEntry
	err   error
}

func (s staticSource) ListDepotRows(context.Context, *int64) ([]models.DepotRow, error) {
	return s.depot, s.err
}

func (s staticSource) ListFOLCandidates(context.Context, *int64) ([]models.FOLCandidateEntry, error) {
	return s.fol, s.err
}

func TestPoolListUnbilled(t *testing.T) {
	src := staticSource{
		depot: []models.DepotRow{
			{ID: 1},
			{ID: 1},
			{ID: 2, ServiceBillID: i64(7)},
			{ID: 3, ServiceBillID: i64(8)},
		},
		fol: []models.FOLCandidateEntry{
			{ID: 10},
			{ID: 11, ServiceBillID: i64(8)},
		},
	}
	pool := NewPool(src)
	ctx := context.Background()

	units, err := pool.ListUnbilled(ctx, CategoryDepot, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 || units[0].ID != 1 || units[0].Depot == nil {
		t.Errorf("new bill depot units = %+v", units)
	}

	units, _ = pool.ListUnbilled(ctx, CategoryDepot, i64(7))
	if len(units) != 2 || units[1].ID != 2 {
		t.Errorf("editing bill 7 depot units = %+v", units)
	}

	units, _ = pool.ListUnbilled(ctx, CategoryFOL, i64(8))
	if len(units) != 2 || units[1].FOL == nil {
		t.Errorf("editing bill 8 fol units = %+v", units)
	}

	if _, err := pool.ListUnbilled(ctx, "HANDLING", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown category: %v", err)
	}

	broken := NewPool(staticSource{err: errors.New("db down")})
	if _, err := broken.ListUnbilled(ctx, CategoryFOL, nil); err == nil {
		t.Error("source error swallowed")
	}
}

func TestDepotSelection(t *testing.T) {
	rows := []models.DepotRow{
		{ID: 1, QtyMT: dec("2"), Amount: dec("100")},
		{ID: 2, QtyMT: dec("3"), Amount: dec("150")},
		{ID: 3, QtyMT: dec("0.5"), Amount: dec("25.5")},
	}
	sel, missing := NewDepotSelection(rows, []int64{2, 99})
	if len(missing) != 1 || missing[0] != 99 {
		t.Errorf("missing = %v", missing)
	}
	if err := sel.Toggle(3); err != nil {
		t.Fatal(err)
	}
	if err := sel.Toggle(42); err == nil {
		t.Error("toggle of unknown trip accepted")
	}
	sec := sel.Section("D-1")
	if len(sec.SelectedTripIDs) != 2 || sec.SelectedTripIDs[0] != 2 {
		t.Errorf("ids = %v", sec.SelectedTripIDs)
	}
	if !sec.TotalDepotQty.Equal(dec("3.5")) || !sec.TotalDepotAmount.Equal(dec("175.5")) {
		t.Errorf("totals = %s / %s", sec.TotalDepotQty, sec.TotalDepotAmount)
	}

	sel.SelectAll()
	if !sel.AllSelected() {
		t.Fatal("select all did not select every row")
	}
	qty, amount := sel.Totals()
	if !qty.Equal(dec("5.5")) || !amount.Equal(dec("275.5")) {
		t.Errorf("all totals = %s / %s", qty, amount)
	}
	sel.SelectAll()
	if len(sel.IDs()) != 0 {
		t.Errorf("second select all should clear, got %v", sel.IDs())
	}
}
