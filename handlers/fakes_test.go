package handlers

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freighterp/billing"
	"freighterp/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeStore keeps entries and bills in memory with the attach rule of the
// Postgres repositories: a unit owned by another bill fails the commit.
type fakeStore struct {
	mu      sync.Mutex
	entries map[int64]models.DestinationEntry
	bills   map[int64]models.ServiceBill
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: map[int64]models.DestinationEntry{},
		bills:   map[int64]models.ServiceBill{},
		nextID:  100,
	}
}

func (s *fakeStore) put(e models.DestinationEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
}

func (s *fakeStore) CreateDestinationEntry(_ context.Context, e *models.DestinationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	e.CreatedAt = time.Now().UTC()
	s.entries[e.ID] = *e
	return nil
}

func (s *fakeStore) UpdateDestinationEntry(_ context.Context, e *models.DestinationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[e.ID]
	if !ok {
		return billing.ErrNotFound
	}
	if old.ServiceBillID != nil {
		return billing.ErrEntryAlreadyBilled
	}
	s.entries[e.ID] = *e
	return nil
}

func (s *fakeStore) GetDestinationEntry(_ context.Context, id int64) (*models.DestinationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *fakeStore) GetDestinationEntries(_ context.Context, ids []int64) ([]models.DestinationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DestinationEntry
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) ListDestinationEntries(_ context.Context, tt models.TransportType) ([]models.DestinationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DestinationEntry
	for _, e := range s.entries {
		if tt == "" || e.TransportType == tt {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) DeleteDestinationEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return billing.ErrNotFound
	}
	if e.ServiceBillID != nil {
		return billing.ErrEntryAlreadyBilled
	}
	delete(s.entries, id)
	return nil
}

func (s *fakeStore) UpdateDestinationEntryPDF(context.Context, int64, string, time.Time) error {
	return nil
}

func (s *fakeStore) ListDepotRows(context.Context, *int64) ([]models.DepotRow, error) {
	return nil, nil
}

func (s *fakeStore) ListFOLCandidates(context.Context, *int64) ([]models.FOLCandidateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FOLCandidateEntry
	for _, e := range s.entries {
		if e.TransportType == models.TransportFOL {
			out = append(out, models.FOLCandidateEntry{ID: e.ID, ServiceBillID: e.ServiceBillID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) attach(bill *models.ServiceBill) error {
	if bill.FOL == nil {
		return nil
	}
	var taken []int64
	for _, id := range bill.FOL.SelectedEntryIDs {
		e := s.entries[id]
		if e.ServiceBillID != nil && *e.ServiceBillID != bill.ID {
			taken = append(taken, id)
		}
	}
	if len(taken) > 0 {
		return &billing.ConflictError{Category: billing.CategoryFOL, UnitIDs: taken, Reason: "taken"}
	}
	for _, id := range bill.FOL.SelectedEntryIDs {
		e := s.entries[id]
		billID := bill.ID
		e.ServiceBillID = &billID
		s.entries[id] = e
	}
	return nil
}

func (s *fakeStore) CreateServiceBill(_ context.Context, bill *models.ServiceBill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	bill.ID = s.nextID
	if err := s.attach(bill); err != nil {
		bill.ID = 0
		return err
	}
	s.bills[bill.ID] = *bill
	return nil
}

func (s *fakeStore) UpdateServiceBill(_ context.Context, bill *models.ServiceBill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[bill.ID]; !ok {
		return billing.ErrNotFound
	}
	if err := s.attach(bill); err != nil {
		return err
	}
	s.bills[bill.ID] = *bill
	return nil
}

func (s *fakeStore) GetServiceBill(_ context.Context, id int64) (*models.ServiceBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *fakeStore) ListServiceBills(context.Context) ([]models.ServiceBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ServiceBill
	for _, b := range s.bills {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) UpdateServiceBillPDF(context.Context, int64, string, time.Time) error {
	return nil
}

// fakeSlabs validates saves the way the Postgres repository does.
type fakeSlabs struct {
	mu    sync.Mutex
	slabs []models.RateSlab
}

func (f *fakeSlabs) ListRateSlabs(context.Context) ([]models.RateSlab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RateSlab(nil), f.slabs...), nil
}

func (f *fakeSlabs) GetRateSlab(_ context.Context, id int64) (*models.RateSlab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slabs {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeSlabs) SaveRateSlab(_ context.Context, slab *models.RateSlab) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := billing.ValidateSlab(*slab); err != nil {
		return err
	}
	if err := billing.CheckOverlap(f.slabs, *slab); err != nil {
		return err
	}
	if slab.ID == 0 {
		slab.ID = int64(len(f.slabs) + 1)
		f.slabs = append(f.slabs, *slab)
		return nil
	}
	for i := range f.slabs {
		if f.slabs[i].ID == slab.ID {
			f.slabs[i] = *slab
			return nil
		}
	}
	return billing.ErrNotFound
}

func (f *fakeSlabs) DeleteRateSlab(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.slabs {
		if f.slabs[i].ID == id {
			f.slabs = append(f.slabs[:i], f.slabs[i+1:]...)
			return nil
		}
	}
	return billing.ErrNotFound
}

type fakeRefs struct {
	dests   map[int64]models.Destination
	dealers []models.DealerNear
}

func (f *fakeRefs) GetDestination(_ context.Context, id int64) (*models.Destination, error) {
	d, ok := f.dests[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeRefs) ListDealersNear(_ context.Context, destinationID int64, _ *int64) ([]models.DealerNear, error) {
	if _, ok := f.dests[destinationID]; !ok {
		return nil, nil
	}
	return f.dealers, nil
}

type testEnv struct {
	store   *fakeStore
	slabs   *fakeSlabs
	refs    *fakeRefs
	guard   *billing.MemoryGuard
	entries *DestinationEntryHandler
	bills   *ServiceBillHandler
}

var slab0to100 = models.RateSlab{ID: 1, FromKM: dec("0"), ToKM: dec("100"), Rate: dec("200")}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	store := newFakeStore()
	slabs := &fakeSlabs{slabs: []models.RateSlab{slab0to100}}
	refs := &fakeRefs{dests: map[int64]models.Destination{
		10: {ID: 10, Name: "Aluva"},
		11: {ID: 11, Name: "Kochi"},
	}}
	drafts := billing.NewMemoryDraftStore()
	pool := billing.NewPool(store)
	guard := billing.NewMemoryGuard()
	rec := billing.NewReconciler(pool, store, drafts, guard, log)
	return &testEnv{
		store: store,
		slabs: slabs,
		refs:  refs,
		guard: guard,
		entries: &DestinationEntryHandler{
			Repo: store, Refs: refs, Slabs: slabs, Drafts: drafts, Pool: pool, Guard: guard, Log: log,
		},
		bills: &ServiceBillHandler{Reconciler: rec, Repo: store, Log: log},
	}
}

// folEntry stores a normalized FOL entry with one trip per bag count under
// the 0-100 km slab.
func (env *testEnv) folEntry(t *testing.T, id, destID int64, bags ...int) models.DestinationEntry {
	t.Helper()
	snap := slab0to100
	g := models.SlabGroup{RateSlab: &snap, Rate: snap.Rate}
	for _, b := range bags {
		g.Trips = append(g.Trips, models.DealerTrip{NoBags: b, KM: dec("40")})
	}
	dest := env.refs.dests[destID]
	e := models.DestinationEntry{
		ID:            id,
		DestinationID: destID,
		TransportType: models.TransportFOL,
		SlabGroups:    []models.SlabGroup{g},
		Destination:   &dest,
	}
	if err := billing.Normalize(&e); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	env.store.put(e)
	return e
}
