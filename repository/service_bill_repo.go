package repository

import (
	"context"
	"time"

	"freighterp/billing"
	"freighterp/models"
)

type ServiceBillRepository interface {
	CreateServiceBill(ctx context.Context, bill *models.ServiceBill) error
	UpdateServiceBill(ctx context.Context, bill *models.ServiceBill) error
	GetServiceBill(ctx context.Context, id int64) (*models.ServiceBill, error)
	ListServiceBills(ctx context.Context) ([]models.ServiceBill, error)
	UpdateServiceBillPDF(ctx context.Context, id int64, path string, createdAt time.Time) error
}

// BillingStore joins the entry and bill repositories into the store the
// reconciler and the unbilled pool read through.
type BillingStore struct {
	DestinationEntryRepository
	ServiceBillRepository
}

var (
	_ billing.BillStore  = (*BillingStore)(nil)
	_ billing.PoolSource = (*BillingStore)(nil)
	_ billing.DraftStore = (*MongoDraftRepo)(nil)
)
