package repository

import (
	"context"
	"time"

	"freighterp/models"
)

// PDFRepository provides methods to fetch data for PDF generation
type PDFRepository struct {
	Bills    ServiceBillRepository
	Entries  DestinationEntryRepository
	Profiles CompanyProfileRepository
}

// NewPDFRepository initializes a PDF repository
func NewPDFRepository(bills ServiceBillRepository, entries DestinationEntryRepository, profiles CompanyProfileRepository) *PDFRepository {
	return &PDFRepository{
		Bills:    bills,
		Entries:  entries,
		Profiles: profiles,
	}
}

func (r *PDFRepository) GetServiceBillForPDF(ctx context.Context, id int64) (*models.ServiceBill, error) {
	return r.Bills.GetServiceBill(ctx, id)
}

// GetBilledDepotRows returns the depot trips attached to bill, ordered as
// the pool lists them.
func (r *PDFRepository) GetBilledDepotRows(ctx context.Context, billID int64) ([]models.DepotRow, error) {
	rows, err := r.Entries.ListDepotRows(ctx, &billID)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		if row.ServiceBillID != nil && *row.ServiceBillID == billID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *PDFRepository) GetDestinationEntryForPDF(ctx context.Context, id int64) (*models.DestinationEntry, error) {
	return r.Entries.GetDestinationEntry(ctx, id)
}

// GetCompanyProfileForPDF fetches the latest letterhead
func (r *PDFRepository) GetCompanyProfileForPDF(ctx context.Context) (*models.CompanyProfile, error) {
	return r.Profiles.GetCompanyProfile(ctx)
}

func (r *PDFRepository) MarkServiceBillPDF(ctx context.Context, id int64, path string) error {
	return r.Bills.UpdateServiceBillPDF(ctx, id, path, time.Now().UTC())
}

func (r *PDFRepository) MarkDestinationEntryPDF(ctx context.Context, id int64, path string) error {
	return r.Entries.UpdateDestinationEntryPDF(ctx, id, path, time.Now().UTC())
}
