package repository

import (
	"context"
	"time"

	"freighterp/models"
)

type DestinationEntryRepository interface {
	CreateDestinationEntry(ctx context.Context, e *models.DestinationEntry) error
	UpdateDestinationEntry(ctx context.Context, e *models.DestinationEntry) error
	GetDestinationEntry(ctx context.Context, id int64) (*models.DestinationEntry, error)
	GetDestinationEntries(ctx context.Context, ids []int64) ([]models.DestinationEntry, error)
	ListDestinationEntries(ctx context.Context, transportType models.TransportType) ([]models.DestinationEntry, error)
	DeleteDestinationEntry(ctx context.Context, id int64) error
	UpdateDestinationEntryPDF(ctx context.Context, id int64, path string, createdAt time.Time) error

	ListDepotRows(ctx context.Context, excludingBillID *int64) ([]models.DepotRow, error)
	ListFOLCandidates(ctx context.Context, excludingBillID *int64) ([]models.FOLCandidateEntry, error)
}
