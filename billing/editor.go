package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"freighterp/models"
)

// SlabLookup resolves rate slab ids for editors.
type SlabLookup interface {
	GetRateSlab(ctx context.Context, id int64) (*models.RateSlab, error)
}

type EntryHeader struct {
	DestinationID *int64                `json:"destination_id,omitempty"`
	TransportType *models.TransportType `json:"transport_type,omitempty"`
	Date          *string               `json:"date,omitempty"`
	BillNumber    *string               `json:"bill_number,omitempty"`
	LetterNote    *string               `json:"letter_note,omitempty"`
	ToAddress     *string               `json:"to_address,omitempty"`
}

// EntryOp is one editor mutation.
type EntryOp struct {
	Op          string             `json:"op"`
	GroupKey    string             `json:"group_key,omitempty"`
	TripKey     string             `json:"trip_key,omitempty"`
	RateSlabID  int64              `json:"rate_slab_id,omitempty"`
	Trip        *TripPatch         `json:"trip,omitempty"`
	Dealer      *models.DealerNear `json:"dealer,omitempty"`
	Rate        *decimal.Decimal   `json:"rate,omitempty"`
	PrintPageNo *int               `json:"print_page_no,omitempty"`
	Header      *EntryHeader       `json:"header,omitempty"`
}

const (
	OpSetHeader    = "set_header"
	OpAddGroup     = "add_group"
	OpRemoveGroup  = "remove_group"
	OpSetRate      = "set_rate"
	OpSetPrintPage = "set_print_page"
	OpAddTrip      = "add_trip"
	OpUpdateTrip   = "update_trip"
	OpSelectDealer = "select_dealer"
	OpRemoveTrip   = "remove_trip"
)

// EntryEditor is a server-held destination entry draft.
type EntryEditor struct {
	Key   string                   `json:"key"`
	Entry *models.DestinationEntry `json:"entry"`

	drafts DraftStore
	slabs  SlabLookup
}

// OpenEntryEditor resumes the draft stored under key, or starts one from
// seed when none exists. An empty key starts a new draft.
func OpenEntryEditor(ctx context.Context, drafts DraftStore, slabs SlabLookup, key string, seed *models.DestinationEntry) (*EntryEditor, error) {
	ed := &EntryEditor{Key: key, drafts: drafts, slabs: slabs}
	if key == "" {
		ed.Key = newKey()
	} else {
		var stored models.DestinationEntry
		found, err := drafts.Load(ctx, DraftDestinationEntry, key, &stored)
		if err != nil {
			return nil, fmt.Errorf("load entry draft: %w", err)
		}
		if found {
			ed.Entry = &stored
			WithTotals(ed.Entry)
			return ed, nil
		}
		if seed == nil {
			return nil, ErrNotFound
		}
	}

	if seed == nil {
		seed = &models.DestinationEntry{TransportType: models.TransportFOL}
	}
	if seed.SlabGroups == nil {
		seed.SlabGroups = []models.SlabGroup{}
	}
	ed.Entry = seed
	WithTotals(ed.Entry)
	if err := ed.checkpoint(ctx); err != nil {
		return nil, err
	}
	return ed, nil
}

func (ed *EntryEditor) checkpoint(ctx context.Context) error {
	if err := ed.drafts.Save(ctx, DraftDestinationEntry, ed.Key, ed.Entry); err != nil {
		return fmt.Errorf("save entry draft: %w", err)
	}
	return nil
}

// Apply performs op and saves the draft when it succeeds.
func (ed *EntryEditor) Apply(ctx context.Context, op EntryOp) error {
	if err := ed.apply(ctx, op); err != nil {
		return err
	}
	WithTotals(ed.Entry)
	return ed.checkpoint(ctx)
}

func (ed *EntryEditor) apply(ctx context.Context, op EntryOp) error {
	e := ed.Entry
	switch op.Op {
	case OpSetHeader:
		if op.Header == nil {
			return invalid("header", "missing")
		}
		applyHeader(e, *op.Header)
		return nil
	case OpAddGroup:
		if op.RateSlabID == 0 {
			return ErrMissingRateSlab
		}
		slab, err := ed.slabs.GetRateSlab(ctx, op.RateSlabID)
		if err != nil {
			return err
		}
		if slab == nil {
			return ErrMissingRateSlab
		}
		_, err = AddSlabGroup(e, *slab)
		return err
	case OpRemoveGroup:
		return RemoveSlabGroup(e, op.GroupKey)
	case OpSetRate:
		if op.Rate == nil {
			return invalid("rate", "missing")
		}
		return SetGroupRate(e, op.GroupKey, *op.Rate)
	case OpSetPrintPage:
		return SetPrintPageNo(e, op.GroupKey, op.PrintPageNo)
	case OpAddTrip:
		_, err := AddTrip(e, op.GroupKey)
		return err
	case OpUpdateTrip:
		if op.Trip == nil {
			return invalid("trip", "missing")
		}
		_, err := UpdateTrip(e, op.GroupKey, op.TripKey, *op.Trip)
		return err
	case OpSelectDealer:
		if op.Dealer == nil {
			return invalid("dealer", "missing")
		}
		_, err := SelectDealer(e, op.GroupKey, op.TripKey, *op.Dealer)
		return err
	case OpRemoveTrip:
		return RemoveTrip(e, op.GroupKey, op.TripKey)
	default:
		return invalid("op", "unknown operation %q", op.Op)
	}
}

func applyHeader(e *models.DestinationEntry, h EntryHeader) {
	if h.DestinationID != nil {
		e.DestinationID = *h.DestinationID
	}
	if h.TransportType != nil {
		e.TransportType = *h.TransportType
	}
	if h.Date != nil {
		e.Date = *h.Date
	}
	if h.BillNumber != nil {
		e.BillNumber = h.BillNumber
	}
	if h.LetterNote != nil {
		e.LetterNote = h.LetterNote
	}
	if h.ToAddress != nil {
		e.ToAddress = h.ToAddress
	}
}

// Discard drops the stored draft.
func (ed *EntryEditor) Discard(ctx context.Context) error {
	return ed.drafts.Delete(ctx, DraftDestinationEntry, ed.Key)
}
