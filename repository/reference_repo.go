package repository

import (
	"context"

	"freighterp/models"
)

// ReferenceRepository reads the destination, place and dealer tables the
// billing engine depends on.
type ReferenceRepository interface {
	GetDestination(ctx context.Context, id int64) (*models.Destination, error)
	ListDealersNear(ctx context.Context, destinationID int64, rateSlabID *int64) ([]models.DealerNear, error)
}
