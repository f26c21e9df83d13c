package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"freighterp/billing"
	"freighterp/models"
	"freighterp/repository"
)

type DestinationEntryHandler struct {
	Repo   repository.DestinationEntryRepository
	Refs   repository.ReferenceRepository
	Slabs  repository.RateSlabRepository
	Drafts billing.DraftStore
	Pool   *billing.Pool
	Guard  billing.InFlightGuard
	Log    *zap.Logger
}

// prepare checks references against the store and recomputes every
// derived field before a write. Groups whose slab prior already bound keep
// prior's snapshot; every other group snapshots the slab as stored now.
// A group without its own rate takes the snapshot rate.
func (h *DestinationEntryHandler) prepare(ctx context.Context, e, prior *models.DestinationEntry) error {
	if e.DestinationID == 0 {
		return billing.ErrMissingDest
	}
	dest, err := h.Refs.GetDestination(ctx, e.DestinationID)
	if err != nil {
		return err
	}
	if dest == nil {
		return billing.ErrMissingDest
	}

	bound := map[int64]models.RateSlab{}
	if prior != nil {
		for _, g := range prior.SlabGroups {
			if g.RateSlab != nil && g.RateSlab.ID != 0 {
				bound[g.RateSlab.ID] = *g.RateSlab
			}
		}
	}

	for gi := range e.SlabGroups {
		g := &e.SlabGroups[gi]
		if g.RateSlab == nil || g.RateSlab.ID == 0 {
			return billing.ErrMissingRateSlab
		}
		snap, ok := bound[g.RateSlab.ID]
		if !ok {
			stored, err := h.Slabs.GetRateSlab(ctx, g.RateSlab.ID)
			if err != nil {
				return err
			}
			if stored == nil {
				return billing.ErrMissingRateSlab
			}
			snap = *stored
		}
		g.RateSlab = &snap
		if g.Rate.IsZero() {
			g.Rate = snap.Rate
		}
	}
	return billing.Normalize(e)
}

// stored loads the persisted entry an update applies to.
func (h *DestinationEntryHandler) stored(ctx context.Context, id int64) (*models.DestinationEntry, error) {
	prior, err := h.Repo.GetDestinationEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, billing.ErrNotFound
	}
	if prior.ServiceBillID != nil {
		return nil, billing.ErrEntryAlreadyBilled
	}
	return prior, nil
}

// ---- Destination entries ----

func (h *DestinationEntryHandler) CreateDestinationEntry(w http.ResponseWriter, r *http.Request) {
	var e models.DestinationEntry
	if !decodeJSON(w, r, &e) {
		return
	}
	e.ID = 0
	e.ServiceBillID = nil
	if err := h.prepare(r.Context(), &e, nil); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Repo.CreateDestinationEntry(r.Context(), &e); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *DestinationEntryHandler) UpdateDestinationEntry(w http.ResponseWriter, r *http.Request, id int64) {
	var e models.DestinationEntry
	if !decodeJSON(w, r, &e) {
		return
	}
	e.ID = id
	e.ServiceBillID = nil
	prior, err := h.stored(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.prepare(r.Context(), &e, prior); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Repo.UpdateDestinationEntry(r.Context(), &e); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *DestinationEntryHandler) GetDestinationEntry(w http.ResponseWriter, r *http.Request, id int64) {
	e, err := h.Repo.GetDestinationEntry(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if e == nil {
		writeError(w, h.Log, billing.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *DestinationEntryHandler) ListDestinationEntries(w http.ResponseWriter, r *http.Request) {
	tt := models.TransportType(r.URL.Query().Get("transport_type"))
	switch tt {
	case "", models.TransportFOL, models.TransportDepot:
	default:
		badRequest(w, "invalid transport_type")
		return
	}

	list, err := h.Repo.ListDestinationEntries(r.Context(), tt)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if list == nil {
		list = []models.DestinationEntry{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DestinationEntryHandler) DeleteDestinationEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Repo.DeleteDestinationEntry(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Destination entry deleted successfully"})
}

// ---- Unbilled pool ----

func (h *DestinationEntryHandler) UnbilledDepotTrips(w http.ResponseWriter, r *http.Request) {
	billID, ok := optionalQueryID(w, r, "service_bill_id")
	if !ok {
		return
	}
	rows, err := h.Pool.DepotRows(r.Context(), billID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *DestinationEntryHandler) UnbilledFOLEntries(w http.ResponseWriter, r *http.Request) {
	billID, ok := optionalQueryID(w, r, "service_bill_id")
	if !ok {
		return
	}
	rows, err := h.Pool.FOLCandidates(r.Context(), billID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ---- Drafts ----

type openEntryDraftRequest struct {
	EntryID int64 `json:"entry_id,omitempty"`
}

// CreateDraft starts an editor, empty or seeded from a stored entry.
func (h *DestinationEntryHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req openEntryDraftRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	var seed *models.DestinationEntry
	if req.EntryID != 0 {
		stored, err := h.Repo.GetDestinationEntry(r.Context(), req.EntryID)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		if stored == nil {
			writeError(w, h.Log, billing.ErrNotFound)
			return
		}
		if stored.ServiceBillID != nil {
			writeError(w, h.Log, billing.ErrEntryAlreadyBilled)
			return
		}
		seed = stored
	}

	ed, err := billing.OpenEntryEditor(r.Context(), h.Drafts, h.Slabs, "", seed)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ed)
}

func (h *DestinationEntryHandler) GetDraft(w http.ResponseWriter, r *http.Request, key string) {
	ed, err := billing.OpenEntryEditor(r.Context(), h.Drafts, h.Slabs, key, nil)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ed)
}

func (h *DestinationEntryHandler) PatchDraft(w http.ResponseWriter, r *http.Request, key string) {
	var op billing.EntryOp
	if !decodeJSON(w, r, &op) {
		return
	}
	release, err := h.Guard.Acquire(r.Context(), billing.EntryDraftLock(key))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	defer release()

	ed, err := billing.OpenEntryEditor(r.Context(), h.Drafts, h.Slabs, key, nil)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := ed.Apply(r.Context(), op); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ed)
}

func (h *DestinationEntryHandler) DeleteDraft(w http.ResponseWriter, r *http.Request, key string) {
	release, err := h.Guard.Acquire(r.Context(), billing.EntryDraftLock(key))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	defer release()

	if err := h.Drafts.Delete(r.Context(), billing.DraftDestinationEntry, key); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CommitDraft saves the draft as a destination entry and drops it.
func (h *DestinationEntryHandler) CommitDraft(w http.ResponseWriter, r *http.Request, key string) {
	ctx := r.Context()
	release, err := h.Guard.Acquire(ctx, billing.EntryDraftLock(key))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	defer release()

	ed, err := billing.OpenEntryEditor(ctx, h.Drafts, h.Slabs, key, nil)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	e := ed.Entry
	e.ServiceBillID = nil
	var prior *models.DestinationEntry
	if e.ID != 0 {
		if prior, err = h.stored(ctx, e.ID); err != nil {
			writeError(w, h.Log, err)
			return
		}
	}
	if err := h.prepare(ctx, e, prior); err != nil {
		writeError(w, h.Log, err)
		return
	}

	status := http.StatusOK
	if e.ID == 0 {
		status = http.StatusCreated
		err = h.Repo.CreateDestinationEntry(ctx, e)
	} else {
		err = h.Repo.UpdateDestinationEntry(ctx, e)
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if err := ed.Discard(ctx); err != nil {
		h.Log.Warn("drop committed entry draft", zap.String("key", key), zap.Error(err))
	}
	writeJSON(w, status, e)
}
