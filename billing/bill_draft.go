package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"freighterp/models"
)

// BillDraft is a service bill being edited on the server.
type BillDraft struct {
	Key  string             `json:"key"`
	Bill models.ServiceBill `json:"bill"`
}

type BillHeader struct {
	BillDate       *string `json:"bill_date,omitempty"`
	ToAddress      *string `json:"to_address,omitempty"`
	LetterNote     *string `json:"letter_note,omitempty"`
	DateOfClearing *string `json:"date_of_clearing,omitempty"`
	Product        *string `json:"product,omitempty"`
	HSNCode        *string `json:"hsn_code,omitempty"`
	Year           *string `json:"year,omitempty"`
}

// BillOp is one service bill draft mutation.
type BillOp struct {
	Op         string                  `json:"op"`
	Header     *BillHeader             `json:"header,omitempty"`
	Handling   *models.HandlingSection `json:"handling,omitempty"`
	BillNumber *string                 `json:"bill_number,omitempty"`
	TripID     int64                   `json:"trip_id,omitempty"`
	EntryIDs   []int64                 `json:"entry_ids,omitempty"`
	RHQty      *decimal.Decimal        `json:"rh_qty,omitempty"`
}

const (
	OpSetBillHeader      = "set_header"
	OpSetHandling        = "set_handling"
	OpClearHandling      = "clear_handling"
	OpSetDepotBillNumber = "set_depot_bill_number"
	OpToggleDepot        = "toggle_depot"
	OpSelectAllDepot     = "select_all_depot"
	OpClearDepot         = "clear_depot"
	OpSetFOLBillNumber   = "set_fol_bill_number"
	OpSelectFOL          = "select_fol"
	OpSetRHQty           = "set_rh_qty"
	OpClearFOL           = "clear_fol"
)

// OpenBillDraft resumes the draft under key. With an empty key it starts a
// new draft, seeded from the stored bill when billID is non-zero.
func (r *Reconciler) OpenBillDraft(ctx context.Context, key string, billID int64) (*BillDraft, error) {
	if key != "" {
		d := &BillDraft{}
		found, err := r.drafts.Load(ctx, DraftServiceBill, key, d)
		if err != nil {
			return nil, fmt.Errorf("load bill draft: %w", err)
		}
		if !found {
			return nil, ErrNotFound
		}
		return d, nil
	}

	d := &BillDraft{Key: newKey(), Bill: models.ServiceBill{Product: models.DefaultProduct}}
	if billID != 0 {
		stored, err := r.store.GetServiceBill(ctx, billID)
		if err != nil {
			return nil, fmt.Errorf("load service bill: %w", err)
		}
		if stored == nil {
			return nil, ErrNotFound
		}
		d.Bill = *stored
	}
	if err := r.saveDraft(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Reconciler) saveDraft(ctx context.Context, d *BillDraft) error {
	if err := r.drafts.Save(ctx, DraftServiceBill, d.Key, d); err != nil {
		return fmt.Errorf("save bill draft: %w", err)
	}
	return nil
}

func (r *Reconciler) DiscardBillDraft(ctx context.Context, key string) error {
	release, err := r.guard.Acquire(ctx, billDraftLock(key))
	if err != nil {
		return err
	}
	defer release()
	return r.drafts.Delete(ctx, DraftServiceBill, key)
}

// ApplyBillOp mutates the draft under key and saves it. It is rejected with
// ErrBusy while a preview or commit of the same draft is running.
func (r *Reconciler) ApplyBillOp(ctx context.Context, key string, op BillOp) (*BillDraft, error) {
	release, err := r.guard.Acquire(ctx, billDraftLock(key))
	if err != nil {
		return nil, err
	}
	defer release()

	d, err := r.OpenBillDraft(ctx, key, 0)
	if err != nil {
		return nil, err
	}
	if err := r.applyBillOp(ctx, d, op); err != nil {
		return nil, err
	}
	if err := r.saveDraft(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Reconciler) applyBillOp(ctx context.Context, d *BillDraft, op BillOp) error {
	b := &d.Bill
	switch op.Op {
	case OpSetBillHeader:
		if op.Header == nil {
			return invalid("header", "missing")
		}
		applyBillHeader(b, *op.Header)
	case OpSetHandling:
		if op.Handling == nil {
			return invalid("handling", "missing")
		}
		h := ComputeHandling(*op.Handling)
		b.Handling = &h
	case OpClearHandling:
		b.Handling = nil
	case OpSetDepotBillNumber:
		if op.BillNumber == nil {
			return invalid("bill_number", "missing")
		}
		depot := r.depotOf(b)
		depot.BillNumber = *op.BillNumber
	case OpToggleDepot, OpSelectAllDepot:
		sel, err := r.depotSelection(ctx, b)
		if err != nil {
			return err
		}
		if op.Op == OpToggleDepot {
			if err := sel.Toggle(op.TripID); err != nil {
				return err
			}
		} else {
			sel.SelectAll()
		}
		sec := sel.Section(r.depotOf(b).BillNumber)
		b.Depot = &sec
	case OpClearDepot:
		b.Depot = nil
	case OpSetFOLBillNumber:
		if op.BillNumber == nil {
			return invalid("bill_number", "missing")
		}
		r.folOf(b).BillNumber = *op.BillNumber
	case OpSelectFOL:
		SelectFOLEntries(r.folOf(b), op.EntryIDs)
	case OpSetRHQty:
		if op.RHQty == nil {
			return invalid("rh_qty", "missing")
		}
		return SetRHQty(r.folOf(b), *op.RHQty)
	case OpClearFOL:
		b.FOL = nil
	default:
		return invalid("op", "unknown operation %q", op.Op)
	}
	return nil
}

func applyBillHeader(b *models.ServiceBill, h BillHeader) {
	if h.BillDate != nil {
		b.BillDate = h.BillDate
	}
	if h.ToAddress != nil {
		b.ToAddress = *h.ToAddress
	}
	if h.LetterNote != nil {
		b.LetterNote = *h.LetterNote
	}
	if h.DateOfClearing != nil {
		b.DateOfClearing = *h.DateOfClearing
	}
	if h.Product != nil {
		b.Product = *h.Product
	}
	if h.HSNCode != nil {
		b.HSNCode = *h.HSNCode
	}
	if h.Year != nil {
		b.Year = *h.Year
	}
}

func (r *Reconciler) depotOf(b *models.ServiceBill) *models.DepotSection {
	if b.Depot == nil {
		b.Depot = &models.DepotSection{SelectedTripIDs: []int64{}}
	}
	return b.Depot
}

func (r *Reconciler) folOf(b *models.ServiceBill) *models.FOLSection {
	if b.FOL == nil {
		b.FOL = &models.FOLSection{SelectedEntryIDs: []int64{}, State: models.FOLStateSelect}
	}
	return b.FOL
}

// depotSelection rebuilds the selection against the current pool. Trips
// taken by another bill since they were selected drop out here and are
// caught again at commit.
func (r *Reconciler) depotSelection(ctx context.Context, b *models.ServiceBill) (*DepotSelection, error) {
	var billID *int64
	if b.ID != 0 {
		billID = &b.ID
	}
	rows, err := r.pool.DepotRows(ctx, billID)
	if err != nil {
		return nil, err
	}
	sel, _ := NewDepotSelection(rows, r.depotOf(b).SelectedTripIDs)
	return sel, nil
}

// PreviewDraft runs the FOL preview for the draft and freezes the result
// into its FOL section.
func (r *Reconciler) PreviewDraft(ctx context.Context, key string) (*BillDraft, error) {
	release, err := r.guard.Acquire(ctx, billDraftLock(key))
	if err != nil {
		return nil, err
	}
	defer release()

	d, err := r.OpenBillDraft(ctx, key, 0)
	if err != nil {
		return nil, err
	}
	fol := d.Bill.FOL
	if fol == nil || len(fol.SelectedEntryIDs) == 0 {
		return nil, ErrEmptySelection
	}
	var billID *int64
	if d.Bill.ID != 0 {
		billID = &d.Bill.ID
	}
	p, err := r.previewFOL(ctx, billID, fol.SelectedEntryIDs, fol.RHQty)
	if err != nil {
		return nil, err
	}
	ApplyFOLPreview(fol, p)
	if err := r.saveDraft(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// CommitDraft commits the draft's bill and drops the draft on success.
func (r *Reconciler) CommitDraft(ctx context.Context, key string) (*models.ServiceBill, error) {
	release, err := r.guard.Acquire(ctx, billDraftLock(key))
	if err != nil {
		return nil, err
	}
	defer release()

	d, err := r.OpenBillDraft(ctx, key, 0)
	if err != nil {
		return nil, err
	}
	bill := d.Bill
	if err := r.CommitBill(ctx, &bill); err != nil {
		return nil, err
	}
	if err := r.drafts.Delete(ctx, DraftServiceBill, key); err != nil {
		r.log.Sugar().Warnf("drop committed bill draft %s: %v", key, err)
	}
	return &bill, nil
}
