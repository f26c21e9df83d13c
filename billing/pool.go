package billing

import (
	"context"
	"fmt"

	"freighterp/models"
)

type Category string

const (
	CategoryDepot Category = "DEPOT"
	CategoryFOL   Category = "FOL"
)

// Eligible reports whether a unit owned by ref may appear in the bill
// identified by excluding (nil while creating a bill).
func Eligible(ref, excluding *int64) bool {
	if ref == nil {
		return true
	}
	return excluding != nil && *ref == *excluding
}

// BillingUnit is one row of the unbilled pool.
type BillingUnit struct {
	Category      Category                  `json:"category"`
	ID            int64                     `json:"id"`
	ServiceBillID *int64                    `json:"service_bill_id,omitempty"`
	Depot         *models.DepotRow          `json:"depot,omitempty"`
	FOL           *models.FOLCandidateEntry `json:"fol,omitempty"`
}

// PoolSource lists candidate rows. Implementations may pre-filter by
// eligibility; Pool filters again.
type PoolSource interface {
	ListDepotRows(ctx context.Context, excludingBillID *int64) ([]models.DepotRow, error)
	ListFOLCandidates(ctx context.Context, excludingBillID *int64) ([]models.FOLCandidateEntry, error)
}

type Pool struct {
	src PoolSource
}

func NewPool(src PoolSource) *Pool {
	return &Pool{src: src}
}

func (p *Pool) DepotRows(ctx context.Context, excludingBillID *int64) ([]models.DepotRow, error) {
	rows, err := p.src.ListDepotRows(ctx, excludingBillID)
	if err != nil {
		return nil, fmt.Errorf("list depot rows: %w", err)
	}
	out := make([]models.DepotRow, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	for _, r := range rows {
		if seen[r.ID] || !Eligible(r.ServiceBillID, excludingBillID) {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out, nil
}

func (p *Pool) FOLCandidates(ctx context.Context, excludingBillID *int64) ([]models.FOLCandidateEntry, error) {
	rows, err := p.src.ListFOLCandidates(ctx, excludingBillID)
	if err != nil {
		return nil, fmt.Errorf("list fol entries: %w", err)
	}
	out := make([]models.FOLCandidateEntry, 0, len(rows))
	for _, r := range rows {
		if Eligible(r.ServiceBillID, excludingBillID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListUnbilled returns the units of category that a bill may select.
func (p *Pool) ListUnbilled(ctx context.Context, category Category, excludingBillID *int64) ([]BillingUnit, error) {
	var units []BillingUnit
	switch category {
	case CategoryDepot:
		rows, err := p.DepotRows(ctx, excludingBillID)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			r := rows[i]
			units = append(units, BillingUnit{Category: category, ID: r.ID, ServiceBillID: r.ServiceBillID, Depot: &r})
		}
	case CategoryFOL:
		rows, err := p.FOLCandidates(ctx, excludingBillID)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			r := rows[i]
			units = append(units, BillingUnit{Category: category, ID: r.ID, ServiceBillID: r.ServiceBillID, FOL: &r})
		}
	default:
		return nil, invalid("category", "unknown billing category %q", category)
	}
	return units, nil
}

// missingIDs returns the ids not present in known, in input order.
func missingIDs(ids []int64, known map[int64]bool) []int64 {
	var out []int64
	for _, id := range ids {
		if !known[id] {
			out = append(out, id)
		}
	}
	return out
}
