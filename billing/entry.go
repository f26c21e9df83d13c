package billing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freighterp/models"
)

// TripPatch carries the trip fields an operator may edit. Nil means unchanged.
type TripPatch struct {
	DealerID     *int64           `json:"dealer_id,omitempty"`
	DespatchedTo *string          `json:"despatched_to,omitempty"`
	MDANumber    *string          `json:"mda_number,omitempty"`
	Date         *string          `json:"date,omitempty"`
	NoBags       *int             `json:"no_bags,omitempty"`
	KM           *decimal.Decimal `json:"km,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Remarks      *string          `json:"remarks,omitempty"`
}

func newKey() string { return uuid.NewString() }

func findGroup(e *models.DestinationEntry, groupKey string) (*models.SlabGroup, error) {
	for i := range e.SlabGroups {
		if e.SlabGroups[i].Key == groupKey {
			return &e.SlabGroups[i], nil
		}
	}
	return nil, invalid("group_key", "unknown slab group %q", groupKey)
}

func findTrip(g *models.SlabGroup, tripKey string) (int, error) {
	for i := range g.Trips {
		if g.Trips[i].Key == tripKey {
			return i, nil
		}
	}
	return -1, invalid("trip_key", "unknown trip %q", tripKey)
}

func slabUsed(e *models.DestinationEntry, slabID int64) bool {
	for _, g := range e.SlabGroups {
		if g.RateSlab != nil && g.RateSlab.ID == slabID {
			return true
		}
	}
	return false
}

// sortGroups keeps slab groups ordered by the slab's FromKM.
func sortGroups(e *models.DestinationEntry) {
	sort.SliceStable(e.SlabGroups, func(i, j int) bool {
		a, b := e.SlabGroups[i].RateSlab, e.SlabGroups[j].RateSlab
		if a == nil || b == nil {
			return false
		}
		return a.FromKM.LessThan(b.FromKM)
	})
}

// AddSlabGroup binds a new group to slab, snapshotting its rate and mode.
func AddSlabGroup(e *models.DestinationEntry, slab models.RateSlab) (models.SlabGroup, error) {
	if slab.ID == 0 {
		return models.SlabGroup{}, ErrMissingRateSlab
	}
	if slabUsed(e, slab.ID) {
		return models.SlabGroup{}, ErrDuplicateSlab
	}
	snap := slab
	g := models.SlabGroup{
		Key:      newKey(),
		RateSlab: &snap,
		Rate:     slab.Rate,
		Trips:    []models.DealerTrip{},
	}
	e.SlabGroups = append(e.SlabGroups, g)
	sortGroups(e)
	return g, nil
}

func RemoveSlabGroup(e *models.DestinationEntry, groupKey string) error {
	for i := range e.SlabGroups {
		if e.SlabGroups[i].Key == groupKey {
			e.SlabGroups = append(e.SlabGroups[:i], e.SlabGroups[i+1:]...)
			sortGroups(e)
			return nil
		}
	}
	return invalid("group_key", "unknown slab group %q", groupKey)
}

// AddTrip appends an empty trip to the group.
func AddTrip(e *models.DestinationEntry, groupKey string) (models.DealerTrip, error) {
	g, err := findGroup(e, groupKey)
	if err != nil {
		return models.DealerTrip{}, err
	}
	if g.RateSlab == nil {
		return models.DealerTrip{}, ErrMissingRateSlab
	}
	t := models.DealerTrip{
		Key:         newKey(),
		Description: models.DefaultTripDescription,
	}
	priceTrip(&t, g)
	g.Trips = append(g.Trips, t)
	sortGroups(e)
	return t, nil
}

// RemoveTrip drops a trip. An emptied group stays in place with zero totals.
func RemoveTrip(e *models.DestinationEntry, groupKey, tripKey string) error {
	g, err := findGroup(e, groupKey)
	if err != nil {
		return err
	}
	i, err := findTrip(g, tripKey)
	if err != nil {
		return err
	}
	g.Trips = append(g.Trips[:i], g.Trips[i+1:]...)
	sortGroups(e)
	return nil
}

// UpdateTrip applies patch and re-derives the trip from its group's slab.
func UpdateTrip(e *models.DestinationEntry, groupKey, tripKey string, patch TripPatch) (models.DealerTrip, error) {
	g, err := findGroup(e, groupKey)
	if err != nil {
		return models.DealerTrip{}, err
	}
	i, err := findTrip(g, tripKey)
	if err != nil {
		return models.DealerTrip{}, err
	}
	t := g.Trips[i]

	if patch.NoBags != nil {
		t.NoBags = *patch.NoBags
	}
	if patch.KM != nil {
		t.KM = *patch.KM
	}
	if err := ValidateTripInput(t.NoBags, t.KM); err != nil {
		return models.DealerTrip{}, err
	}
	if patch.DealerID != nil {
		t.DealerID = patch.DealerID
	}
	if patch.DespatchedTo != nil {
		t.DespatchedTo = *patch.DespatchedTo
	}
	if patch.MDANumber != nil {
		t.MDANumber = *patch.MDANumber
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Remarks != nil {
		t.Remarks = patch.Remarks
	}

	priceTrip(&t, g)
	g.Trips[i] = t
	return t, nil
}

// SelectDealer binds a dealer to a trip; distance and the
// "dealer, place" label follow the dealer.
func SelectDealer(e *models.DestinationEntry, groupKey, tripKey string, d models.DealerNear) (models.DealerTrip, error) {
	id := d.DealerID
	km := d.DistanceKM
	label := d.DealerName + ", " + d.PlaceName
	return UpdateTrip(e, groupKey, tripKey, TripPatch{
		DealerID:     &id,
		KM:           &km,
		DespatchedTo: &label,
	})
}

// SetGroupRate changes a group's rate and re-prices all of its trips.
func SetGroupRate(e *models.DestinationEntry, groupKey string, rate decimal.Decimal) error {
	if rate.IsNegative() {
		return invalid("rate", "must not be negative")
	}
	g, err := findGroup(e, groupKey)
	if err != nil {
		return err
	}
	g.Rate = rate
	for i := range g.Trips {
		priceTrip(&g.Trips[i], g)
	}
	return nil
}

func SetPrintPageNo(e *models.DestinationEntry, groupKey string, page *int) error {
	if page != nil && *page < 1 {
		return invalid("print_page_no", "must be at least 1")
	}
	g, err := findGroup(e, groupKey)
	if err != nil {
		return err
	}
	g.PrintPageNo = page
	return nil
}

// GroupTotals sums the trips of one group.
func GroupTotals(g models.SlabGroup) models.Totals {
	t := models.Totals{MT: decimal.Zero, MTK: decimal.Zero, Amount: decimal.Zero}
	for _, trip := range g.Trips {
		t.Bags += trip.NoBags
		t.MT = t.MT.Add(trip.WeightMT)
		t.MTK = t.MTK.Add(trip.WeightMTK)
		t.Amount = t.Amount.Add(trip.Amount)
	}
	return t
}

// EntryTotals sums every group of the entry.
func EntryTotals(e models.DestinationEntry) models.Totals {
	t := models.Totals{MT: decimal.Zero, MTK: decimal.Zero, Amount: decimal.Zero}
	for _, g := range e.SlabGroups {
		gt := GroupTotals(g)
		t.Bags += gt.Bags
		t.MT = t.MT.Add(gt.MT)
		t.MTK = t.MTK.Add(gt.MTK)
		t.Amount = t.Amount.Add(gt.Amount)
	}
	return t
}

// WithTotals returns e with its read-side Totals filled in.
func WithTotals(e *models.DestinationEntry) *models.DestinationEntry {
	t := EntryTotals(*e)
	e.Totals = &t
	return e
}

// Normalize makes an externally supplied entry consistent: keys assigned,
// slab usage unique, trip inputs in range, every derived field recomputed
// and groups ordered.
func Normalize(e *models.DestinationEntry) error {
	if e.DestinationID == 0 {
		return ErrMissingDest
	}
	switch e.TransportType {
	case "":
		e.TransportType = models.TransportFOL
	case models.TransportFOL, models.TransportDepot:
	default:
		return invalid("transport_type", "unknown transport type %q", e.TransportType)
	}
	if len(e.SlabGroups) == 0 {
		return invalid("slab_groups", "add at least one rate slab")
	}

	seen := make(map[int64]bool, len(e.SlabGroups))
	for gi := range e.SlabGroups {
		g := &e.SlabGroups[gi]
		if g.RateSlab == nil || g.RateSlab.ID == 0 {
			return ErrMissingRateSlab
		}
		if seen[g.RateSlab.ID] {
			return ErrDuplicateSlab
		}
		seen[g.RateSlab.ID] = true
		if g.Key == "" {
			g.Key = newKey()
		}
		if g.Trips == nil {
			g.Trips = []models.DealerTrip{}
		}
		for ti := range g.Trips {
			t := &g.Trips[ti]
			if err := ValidateTripInput(t.NoBags, t.KM); err != nil {
				return err
			}
			if t.Key == "" {
				t.Key = newKey()
			}
			if t.Description == "" {
				t.Description = models.DefaultTripDescription
			}
			priceTrip(t, g)
		}
	}
	sortGroups(e)
	WithTotals(e)
	return nil
}
