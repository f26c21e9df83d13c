package billing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"freighterp/models"
)

type slabKey struct {
	slabID int64
	rate   string
}

// ComputeFOLPreview aggregates the trips of the selected entries slab by
// slab and destination by destination. rhQty is added to the grand total
// quantity only.
func ComputeFOLPreview(entries []models.DestinationEntry, rhQty decimal.Decimal) (models.FOLPreview, error) {
	if len(entries) == 0 {
		return models.FOLPreview{}, ErrEmptySelection
	}
	if rhQty.IsNegative() {
		return models.FOLPreview{}, invalid("rh_qty", "must not be negative")
	}

	var order []slabKey
	slabs := map[slabKey]*models.SlabPreview{}
	destIndex := map[slabKey]map[int64]int{}

	for _, e := range entries {
		place := fmt.Sprintf("Destination #%d", e.DestinationID)
		if e.Destination != nil {
			place = e.Destination.DisplayPlace()
		}
		for _, g := range e.SlabGroups {
			if g.RateSlab == nil {
				return models.FOLPreview{}, ErrMissingRateSlab
			}
			k := slabKey{slabID: g.RateSlab.ID, rate: g.Rate.String()}
			sp, ok := slabs[k]
			if !ok {
				sp = &models.SlabPreview{
					RangeSlab:        *g.RateSlab,
					Rate:             g.Rate,
					Destinations:     []models.DestinationPreview{},
					RangeTotalQty:    decimal.Zero,
					RangeTotalMTK:    decimal.Zero,
					RangeTotalAmount: decimal.Zero,
				}
				slabs[k] = sp
				destIndex[k] = map[int64]int{}
				order = append(order, k)
			}

			gt := GroupTotals(g)
			di, ok := destIndex[k][e.DestinationID]
			if !ok {
				sp.Destinations = append(sp.Destinations, models.DestinationPreview{
					DestinationID:    e.DestinationID,
					DestinationPlace: place,
					QtyMT:            decimal.Zero,
					QtyMTK:           decimal.Zero,
					Amount:           decimal.Zero,
				})
				di = len(sp.Destinations) - 1
				destIndex[k][e.DestinationID] = di
			}
			d := &sp.Destinations[di]
			d.QtyMT = d.QtyMT.Add(gt.MT)
			d.QtyMTK = d.QtyMTK.Add(gt.MTK)
			d.Amount = d.Amount.Add(gt.Amount)

			sp.RangeTotalQty = sp.RangeTotalQty.Add(gt.MT)
			sp.RangeTotalMTK = sp.RangeTotalMTK.Add(gt.MTK)
			sp.RangeTotalAmount = sp.RangeTotalAmount.Add(gt.Amount)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := slabs[order[i]], slabs[order[j]]
		if !a.RangeSlab.FromKM.Equal(b.RangeSlab.FromKM) {
			return a.RangeSlab.FromKM.LessThan(b.RangeSlab.FromKM)
		}
		return a.Rate.LessThan(b.Rate)
	})

	p := models.FOLPreview{
		Slabs:            make([]models.SlabPreview, 0, len(order)),
		RHQty:            rhQty,
		GrandTotalQty:    rhQty,
		GrandTotalAmount: decimal.Zero,
	}
	for _, k := range order {
		sp := slabs[k]
		p.Slabs = append(p.Slabs, *sp)
		p.GrandTotalQty = p.GrandTotalQty.Add(sp.RangeTotalQty)
		p.GrandTotalAmount = p.GrandTotalAmount.Add(sp.RangeTotalAmount)
	}
	return p, nil
}

// SetRHQty updates the road-handling quantity. A different value discards
// the preview and returns the section to the select state.
func SetRHQty(sec *models.FOLSection, q decimal.Decimal) error {
	if q.IsNegative() {
		return invalid("rh_qty", "must not be negative")
	}
	if sec.RHQty.Equal(q) && sec.State != "" {
		return nil
	}
	sec.RHQty = q
	discardPreview(sec)
	return nil
}

// SelectFOLEntries replaces the entry selection; a different set discards
// the preview.
func SelectFOLEntries(sec *models.FOLSection, ids []int64) {
	next := uniqueSorted(ids)
	if sameIDs(uniqueSorted(sec.SelectedEntryIDs), next) && sec.State != "" {
		return
	}
	sec.SelectedEntryIDs = next
	discardPreview(sec)
}

// ApplyFOLPreview freezes p into the section.
func ApplyFOLPreview(sec *models.FOLSection, p models.FOLPreview) {
	sec.Slabs = p.Slabs
	sec.RHQty = p.RHQty
	sec.GrandTotalQty = p.GrandTotalQty
	sec.GrandTotalAmount = p.GrandTotalAmount
	sec.State = models.FOLStatePreview
}

func discardPreview(sec *models.FOLSection) {
	sec.State = models.FOLStateSelect
	sec.Slabs = nil
	sec.GrandTotalQty = decimal.Zero
	sec.GrandTotalAmount = decimal.Zero
}

// previewMatches reports whether the snapshot in sec equals p, range by
// range and destination row by destination row.
func previewMatches(sec *models.FOLSection, p models.FOLPreview) bool {
	if len(sec.Slabs) != len(p.Slabs) {
		return false
	}
	for i := range p.Slabs {
		if !slabPreviewEqual(sec.Slabs[i], p.Slabs[i]) {
			return false
		}
	}
	return sec.RHQty.Equal(p.RHQty) &&
		sec.GrandTotalQty.Equal(p.GrandTotalQty) &&
		sec.GrandTotalAmount.Equal(p.GrandTotalAmount)
}

func slabPreviewEqual(a, b models.SlabPreview) bool {
	if a.RangeSlab.ID != b.RangeSlab.ID ||
		!a.RangeSlab.FromKM.Equal(b.RangeSlab.FromKM) ||
		!a.RangeSlab.ToKM.Equal(b.RangeSlab.ToKM) ||
		!a.Rate.Equal(b.Rate) ||
		!a.RangeTotalQty.Equal(b.RangeTotalQty) ||
		!a.RangeTotalMTK.Equal(b.RangeTotalMTK) ||
		!a.RangeTotalAmount.Equal(b.RangeTotalAmount) ||
		len(a.Destinations) != len(b.Destinations) {
		return false
	}
	for i := range a.Destinations {
		x, y := a.Destinations[i], b.Destinations[i]
		if x.DestinationID != y.DestinationID ||
			!x.QtyMT.Equal(y.QtyMT) ||
			!x.QtyMTK.Equal(y.QtyMTK) ||
			!x.Amount.Equal(y.Amount) {
			return false
		}
	}
	return true
}

// VerifyFOLSnapshot recomputes the preview of sec from entries, as locked
// by the committing transaction, and fails with ErrStalePreview when it
// differs from the snapshot sec carries.
func VerifyFOLSnapshot(sec *models.FOLSection, entries []models.DestinationEntry) error {
	if len(entries) != len(uniqueSorted(sec.SelectedEntryIDs)) {
		return ErrStalePreview
	}
	sorted := append([]models.DestinationEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	p, err := ComputeFOLPreview(sorted, sec.RHQty)
	if err != nil || !previewMatches(sec, p) {
		return ErrStalePreview
	}
	return nil
}

func uniqueSorted(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
