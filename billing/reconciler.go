package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freighterp/metrics"
	"freighterp/models"
)

// BillStore is the persistence the reconciler commits through.
// CreateServiceBill and UpdateServiceBill must attach the selected depot
// trips and FOL entries in the same transaction as the bill, failing with
// a *ConflictError when any unit is owned by another bill.
type BillStore interface {
	GetDestinationEntries(ctx context.Context, ids []int64) ([]models.DestinationEntry, error)
	GetServiceBill(ctx context.Context, id int64) (*models.ServiceBill, error)
	CreateServiceBill(ctx context.Context, bill *models.ServiceBill) error
	UpdateServiceBill(ctx context.Context, bill *models.ServiceBill) error
}

type FOLPreviewRequest struct {
	ServiceBillID    *int64          `json:"service_bill_id,omitempty"`
	SelectedEntryIDs []int64         `json:"selected_entry_ids"`
	RHQty            decimal.Decimal `json:"rh_qty"`
}

type Reconciler struct {
	pool   *Pool
	store  BillStore
	drafts DraftStore
	guard  InFlightGuard
	log    *zap.Logger
}

func NewReconciler(pool *Pool, store BillStore, drafts DraftStore, guard InFlightGuard, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{pool: pool, store: store, drafts: drafts, guard: guard, log: log}
}

func (r *Reconciler) Pool() *Pool { return r.pool }

func billKey(id *int64) string {
	if id == nil || *id == 0 {
		return ""
	}
	return fmt.Sprintf("bill:%d", *id)
}

// PreviewFOL runs the slab-wise aggregation for a selection.
func (r *Reconciler) PreviewFOL(ctx context.Context, req FOLPreviewRequest) (models.FOLPreview, error) {
	if len(req.SelectedEntryIDs) == 0 {
		return models.FOLPreview{}, ErrEmptySelection
	}
	if key := billKey(req.ServiceBillID); key != "" {
		release, err := r.guard.Acquire(ctx, key)
		if err != nil {
			return models.FOLPreview{}, err
		}
		defer release()
	}
	return r.previewFOL(ctx, req.ServiceBillID, req.SelectedEntryIDs, req.RHQty)
}

func (r *Reconciler) previewFOL(ctx context.Context, billID *int64, ids []int64, rhQty decimal.Decimal) (models.FOLPreview, error) {
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return models.FOLPreview{}, ErrEmptySelection
	}

	candidates, err := r.pool.FOLCandidates(ctx, billID)
	if err != nil {
		return models.FOLPreview{}, err
	}
	known := make(map[int64]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}
	if missing := missingIDs(ids, known); len(missing) > 0 {
		return models.FOLPreview{}, &ConflictError{
			Category: CategoryFOL,
			UnitIDs:  missing,
			Reason:   "entries are not available for FOL billing",
		}
	}

	entries, err := r.store.GetDestinationEntries(ctx, ids)
	if err != nil {
		return models.FOLPreview{}, fmt.Errorf("load destination entries: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	p, err := ComputeFOLPreview(entries, rhQty)
	if err != nil {
		return models.FOLPreview{}, err
	}
	metrics.FOLPreviews.Inc()
	return p, nil
}

// prepare validates bill and recomputes every derived section value from
// the store. It does not write.
func (r *Reconciler) prepare(ctx context.Context, bill *models.ServiceBill) error {
	var billID *int64
	if bill.ID != 0 {
		billID = &bill.ID
	}
	if bill.Product == "" {
		bill.Product = models.DefaultProduct
	}

	if bill.Handling != nil {
		if err := validateHandling(*bill.Handling); err != nil {
			return err
		}
		h := ComputeHandling(*bill.Handling)
		bill.Handling = &h
	}

	if bill.Depot != nil {
		if bill.Depot.BillNumber == "" {
			return invalid("depot.bill_number", "is required")
		}
		rows, err := r.pool.DepotRows(ctx, billID)
		if err != nil {
			return err
		}
		sel, missing := NewDepotSelection(rows, bill.Depot.SelectedTripIDs)
		if len(missing) > 0 {
			return &ConflictError{
				Category: CategoryDepot,
				UnitIDs:  missing,
				Reason:   "trips are not available for depot billing",
			}
		}
		sec := sel.Section(bill.Depot.BillNumber)
		bill.Depot = &sec
	}

	if bill.FOL != nil {
		fol := bill.FOL
		if fol.BillNumber == "" {
			return invalid("fol.bill_number", "is required")
		}
		if len(fol.SelectedEntryIDs) == 0 {
			return ErrEmptySelection
		}
		if fol.State != models.FOLStatePreview {
			return ErrPreviewRequired
		}
		p, err := r.previewFOL(ctx, billID, fol.SelectedEntryIDs, fol.RHQty)
		if err != nil {
			return err
		}
		if !previewMatches(fol, p) {
			return ErrStalePreview
		}
		fol.SelectedEntryIDs = uniqueSorted(fol.SelectedEntryIDs)
		ApplyFOLPreview(fol, p)
	}
	return nil
}

// CommitBill creates bill, or updates it when bill.ID is set, attaching
// its depot trips and FOL entries exactly once.
func (r *Reconciler) CommitBill(ctx context.Context, bill *models.ServiceBill) error {
	if key := billKey(&bill.ID); key != "" {
		release, err := r.guard.Acquire(ctx, key)
		if err != nil {
			return err
		}
		defer release()
	}
	return r.commit(ctx, bill)
}

func (r *Reconciler) commit(ctx context.Context, bill *models.ServiceBill) error {
	if err := r.prepare(ctx, bill); err != nil {
		r.recordFailure(bill, err)
		return err
	}

	var err error
	if bill.ID == 0 {
		err = r.store.CreateServiceBill(ctx, bill)
	} else {
		err = r.store.UpdateServiceBill(ctx, bill)
	}
	if err != nil {
		r.recordFailure(bill, err)
		return err
	}

	metrics.BillCommits.WithLabelValues("ok").Inc()
	r.log.Info("service bill committed",
		zap.Int64("bill_id", bill.ID),
		zap.Bool("handling", bill.Handling != nil),
		zap.Int("depot_trips", depotCount(bill)),
		zap.Int("fol_entries", folCount(bill)),
	)
	return nil
}

func (r *Reconciler) recordFailure(bill *models.ServiceBill, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		metrics.BillCommits.WithLabelValues("conflict").Inc()
		if conflict.Category != "" {
			metrics.BillingConflicts.WithLabelValues(string(conflict.Category)).Add(float64(len(conflict.UnitIDs)))
		}
		r.log.Warn("service bill commit conflict",
			zap.Int64("bill_id", bill.ID),
			zap.String("category", string(conflict.Category)),
			zap.Int64s("unit_ids", conflict.UnitIDs),
			zap.String("reason", conflict.Reason),
		)
	case errors.Is(err, ErrValidation):
		metrics.BillCommits.WithLabelValues("invalid").Inc()
	default:
		metrics.BillCommits.WithLabelValues("error").Inc()
		r.log.Error("service bill commit failed", zap.Int64("bill_id", bill.ID), zap.Error(err))
	}
}

func depotCount(b *models.ServiceBill) int {
	if b.Depot == nil {
		return 0
	}
	return len(b.Depot.SelectedTripIDs)
}

func folCount(b *models.ServiceBill) int {
	if b.FOL == nil {
		return 0
	}
	return len(b.FOL.SelectedEntryIDs)
}
