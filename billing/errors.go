package billing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrBusy       = errors.New("another preview or commit is in progress")
	ErrNotFound   = errors.New("not found")

	ErrDuplicateSlab      = &ValidationError{Field: "rate_slab", Msg: "rate slab already used in this destination entry"}
	ErrMissingRateSlab    = &ValidationError{Field: "rate_slab", Msg: "rate slab is required"}
	ErrMissingDest        = &ValidationError{Field: "destination_id", Msg: "destination is required"}
	ErrEmptySelection     = &ValidationError{Field: "selected_entry_ids", Msg: "select at least one entry"}
	ErrPreviewRequired    = &ValidationError{Field: "fol", Msg: "run the FOL preview before saving"}
	ErrStalePreview       = &ConflictError{Reason: "FOL preview no longer matches the selected entries"}
	ErrEntryAlreadyBilled = &ConflictError{Reason: "destination entry is attached to a service bill"}
	ErrBillNumberTaken    = &ConflictError{Reason: "bill number is already used by another service bill"}
)

// ValidationError is a caller mistake; retrying the same input fails again.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Field == e.Field && t.Msg == e.Msg
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports billing units that could not be attached because
// another bill owns them, or state that changed under the caller.
type ConflictError struct {
	Category Category
	UnitIDs  []int64
	Reason   string
}

func (e *ConflictError) Error() string {
	if len(e.UnitIDs) == 0 {
		return e.Reason
	}
	ids := make([]string, len(e.UnitIDs))
	for i, id := range e.UnitIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s: %s units [%s]", e.Reason, e.Category, strings.Join(ids, ","))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func (e *ConflictError) Is(target error) bool {
	t, ok := target.(*ConflictError)
	return ok && t.Reason == e.Reason
}
