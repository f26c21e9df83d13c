package billing

import (
	"errors"
	"testing"

	"freighterp/models"
)

func strp(s string) *string { return &s }

// folEntry builds a normalized FOL entry with one trip per bag count.
func folEntry(t *testing.T, id, destID int64, place string, s models.RateSlab, bags ...int) models.DestinationEntry {
	t.Helper()
	g := models.SlabGroup{RateSlab: &s, Rate: s.Rate}
	for _, b := range bags {
		g.Trips = append(g.Trips, models.DealerTrip{NoBags: b})
	}
	e := models.DestinationEntry{
		ID:            id,
		DestinationID: destID,
		TransportType: models.TransportFOL,
		SlabGroups:    []models.SlabGroup{g},
		Destination:   &models.Destination{ID: destID, Name: "dest", Place: strp(place)},
	}
	if err := Normalize(&e); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestComputeFOLPreview(t *testing.T) {
	s := slab(1, "0", "50", "200", false)
	entries := []models.DestinationEntry{
		folEntry(t, 1, 10, "Kochi", s, 100),
		folEntry(t, 2, 11, "Aluva", s, 60),
	}
	p, err := ComputeFOLPreview(entries, dec("2"))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Slabs) != 1 {
		t.Fatalf("slabs = %d, want 1", len(p.Slabs))
	}
	sp := p.Slabs[0]
	if !sp.RangeTotalQty.Equal(dec("8")) || !sp.RangeTotalAmount.Equal(dec("1600")) {
		t.Errorf("range totals = %s / %s", sp.RangeTotalQty, sp.RangeTotalAmount)
	}
	if !p.GrandTotalQty.Equal(dec("10")) || !p.GrandTotalAmount.Equal(dec("1600")) {
		t.Errorf("grand totals = %s / %s", p.GrandTotalQty, p.GrandTotalAmount)
	}
	if len(sp.Destinations) != 2 || sp.Destinations[0].DestinationPlace != "Kochi" {
		t.Errorf("destinations = %+v", sp.Destinations)
	}
}

func TestComputeFOLPreviewGroupsBySlabAndDestination(t *testing.T) {
	near := slab(1, "0", "20", "100", false)
	far := slab(2, "20", "40", "10", true)
	entries := []models.DestinationEntry{
		folEntry(t, 1, 10, "Kochi", far, 20),
		folEntry(t, 2, 10, "Kochi", near, 20),
		folEntry(t, 3, 10, "Kochi", near, 40),
	}
	p, err := ComputeFOLPreview(entries, dec("0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Slabs) != 2 || p.Slabs[0].RangeSlab.ID != 1 {
		t.Fatalf("slab order = %+v", p.Slabs)
	}
	if len(p.Slabs[0].Destinations) != 1 || !p.Slabs[0].Destinations[0].QtyMT.Equal(dec("3")) {
		t.Errorf("same destination not merged: %+v", p.Slabs[0].Destinations)
	}

	var sum = p.RHQty
	amount := dec("0")
	for _, sp := range p.Slabs {
		sum = sum.Add(sp.RangeTotalQty)
		amount = amount.Add(sp.RangeTotalAmount)
	}
	if !sum.Equal(p.GrandTotalQty) || !amount.Equal(p.GrandTotalAmount) {
		t.Errorf("grand totals do not equal slab sums")
	}
}

func TestComputeFOLPreviewErrors(t *testing.T) {
	if _, err := ComputeFOLPreview(nil, dec("0")); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("empty: %v", err)
	}
	e := folEntry(t, 1, 10, "Kochi", slab(1, "0", "20", "100", false), 1)
	if _, err := ComputeFOLPreview([]models.DestinationEntry{e}, dec("-1")); !errors.Is(err, ErrValidation) {
		t.Errorf("negative rh: %v", err)
	}
}

func TestFOLSectionStateMachine(t *testing.T) {
	s := slab(1, "0", "50", "200", false)
	p, err := ComputeFOLPreview([]models.DestinationEntry{folEntry(t, 1, 10, "Kochi", s, 100)}, dec("2"))
	if err != nil {
		t.Fatal(err)
	}

	sec := &models.FOLSection{}
	SelectFOLEntries(sec, []int64{1, 1})
	if sec.State != models.FOLStateSelect || len(sec.SelectedEntryIDs) != 1 {
		t.Fatalf("select: %+v", sec)
	}
	ApplyFOLPreview(sec, p)
	if sec.State != models.FOLStatePreview || !previewMatches(sec, p) {
		t.Fatalf("preview not applied")
	}

	if err := SetRHQty(sec, dec("2")); err != nil {
		t.Fatal(err)
	}
	if sec.State != models.FOLStatePreview {
		t.Errorf("unchanged rh_qty discarded the preview")
	}
	SelectFOLEntries(sec, []int64{1})
	if sec.State != models.FOLStatePreview {
		t.Errorf("unchanged selection discarded the preview")
	}

	if err := SetRHQty(sec, dec("3")); err != nil {
		t.Fatal(err)
	}
	if sec.State != models.FOLStateSelect || sec.Slabs != nil || !sec.GrandTotalQty.IsZero() {
		t.Errorf("changed rh_qty kept the preview: %+v", sec)
	}

	ApplyFOLPreview(sec, p)
	SelectFOLEntries(sec, []int64{1, 2})
	if sec.State != models.FOLStateSelect {
		t.Errorf("changed selection kept the preview")
	}
}

func TestComputeFOLPreviewSplitsSlabByRate(t *testing.T) {
	standard := slab(1, "0", "50", "200", false)
	discounted := standard
	discounted.Rate = dec("150")
	entries := []models.DestinationEntry{
		folEntry(t, 1, 10, "Kochi", standard, 100),
		folEntry(t, 2, 11, "Aluva", discounted, 60),
	}
	p, err := ComputeFOLPreview(entries, dec("0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Slabs) != 2 {
		t.Fatalf("slabs = %d, want one range per rate", len(p.Slabs))
	}
	tests := []struct {
		rate, qty, amount string
	}{
		{"150", "3", "450"},
		{"200", "5", "1000"},
	}
	for i, tc := range tests {
		sp := p.Slabs[i]
		if sp.RangeSlab.ID != 1 || !sp.Rate.Equal(dec(tc.rate)) ||
			!sp.RangeTotalQty.Equal(dec(tc.qty)) || !sp.RangeTotalAmount.Equal(dec(tc.amount)) {
			t.Errorf("range %d = rate %s qty %s amount %s, want %s/%s/%s",
				i, sp.Rate, sp.RangeTotalQty, sp.RangeTotalAmount, tc.rate, tc.qty, tc.amount)
		}
	}
	if !p.GrandTotalAmount.Equal(dec("1450")) {
		t.Errorf("grand amount = %s", p.GrandTotalAmount)
	}
}

func TestPreviewMatchesWholeSnapshot(t *testing.T) {
	s := slab(1, "0", "50", "200", true)
	entries := []models.DestinationEntry{
		folEntry(t, 1, 10, "Kochi", s, 100),
		folEntry(t, 2, 11, "Aluva", s, 60),
	}
	for i := range entries {
		for ti := range entries[i].SlabGroups[0].Trips {
			entries[i].SlabGroups[0].Trips[ti].KM = dec("10")
		}
		if err := Normalize(&entries[i]); err != nil {
			t.Fatal(err)
		}
	}
	p, err := ComputeFOLPreview(entries, dec("2"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(sec *models.FOLSection)
	}{
		{"range mtk", func(sec *models.FOLSection) { sec.Slabs[0].RangeTotalMTK = dec("1") }},
		{"range rate", func(sec *models.FOLSection) { sec.Slabs[0].Rate = dec("1") }},
		{"destination qty", func(sec *models.FOLSection) { sec.Slabs[0].Destinations[1].QtyMT = dec("1") }},
		{"destination mtk", func(sec *models.FOLSection) { sec.Slabs[0].Destinations[0].QtyMTK = dec("1") }},
		{"destination id", func(sec *models.FOLSection) { sec.Slabs[0].Destinations[0].DestinationID = 99 }},
		{"destination row dropped", func(sec *models.FOLSection) {
			sec.Slabs[0].Destinations = sec.Slabs[0].Destinations[:1]
		}},
		{"rh qty", func(sec *models.FOLSection) { sec.RHQty = dec("3") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fresh, _ := ComputeFOLPreview(entries, dec("2"))
			sec := &models.FOLSection{}
			ApplyFOLPreview(sec, fresh)
			if !previewMatches(sec, p) {
				t.Fatal("unchanged snapshot does not match")
			}
			tc.mutate(sec)
			if previewMatches(sec, p) {
				t.Errorf("changed %s still matches", tc.name)
			}
		})
	}
}

func TestVerifyFOLSnapshot(t *testing.T) {
	s := slab(1, "0", "50", "200", false)
	entries := []models.DestinationEntry{
		folEntry(t, 2, 11, "Aluva", s, 60),
		folEntry(t, 1, 10, "Kochi", s, 100),
	}
	sec := &models.FOLSection{SelectedEntryIDs: []int64{1, 2}}
	p, err := ComputeFOLPreview([]models.DestinationEntry{entries[1], entries[0]}, dec("2"))
	if err != nil {
		t.Fatal(err)
	}
	ApplyFOLPreview(sec, p)

	if err := VerifyFOLSnapshot(sec, entries); err != nil {
		t.Fatalf("locked entries in any order: %v", err)
	}

	changed := []models.DestinationEntry{entries[0], folEntry(t, 1, 10, "Kochi", s, 180)}
	if err := VerifyFOLSnapshot(sec, changed); !errors.Is(err, ErrStalePreview) {
		t.Errorf("edited entry: err = %v, want ErrStalePreview", err)
	}
	if err := VerifyFOLSnapshot(sec, entries[:1]); !errors.Is(err, ErrStalePreview) {
		t.Errorf("missing entry: err = %v, want ErrStalePreview", err)
	}
}
