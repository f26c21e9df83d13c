package repository

import (
	"context"

	"freighterp/models"
)

type RateSlabRepository interface {
	ListRateSlabs(ctx context.Context) ([]models.RateSlab, error)
	GetRateSlab(ctx context.Context, id int64) (*models.RateSlab, error)
	SaveRateSlab(ctx context.Context, slab *models.RateSlab) error
	DeleteRateSlab(ctx context.Context, id int64) error
}
