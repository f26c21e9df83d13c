package repository

import (
	"context"

	"freighterp/models"
)

type CompanyProfileRepository interface {
	SaveCompanyProfile(ctx context.Context, profile *models.CompanyProfile) error
	GetCompanyProfile(ctx context.Context) (*models.CompanyProfile, error)
}
