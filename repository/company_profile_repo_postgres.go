package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"freighterp/models"
)

type PostgresCompanyProfileRepo struct {
	DB *sql.DB
}

func NewPostgresCompanyProfileRepo(db *sql.DB) *PostgresCompanyProfileRepo {
	return &PostgresCompanyProfileRepo{DB: db}
}

// SaveCompanyProfile inserts or updates the letterhead
func (r *PostgresCompanyProfileRepo) SaveCompanyProfile(ctx context.Context, p *models.CompanyProfile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Mobile == nil {
		p.Mobile = []models.MobileEntry{}
	}

	mobileJSON, err := json.Marshal(p.Mobile)
	if err != nil {
		return err
	}

	// If ID is passed → UPDATE, else INSERT
	if p.ID > 0 {
		_, err = r.DB.ExecContext(ctx, `
			UPDATE company_profile
			SET name=$1, gstin=$2, address=$3, city=$4, state=$5,
				pincode=$6, mobile=$7, footnote=$8
			WHERE id=$9
		`, p.Name, p.GSTIN, p.Address, p.City, p.State,
			p.Pincode, mobileJSON, p.Footnote, p.ID)
		return err
	}

	return r.DB.QueryRowContext(ctx, `
		INSERT INTO company_profile
		(name, gstin, address, city, state, pincode, mobile, footnote, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, p.Name, p.GSTIN, p.Address, p.City, p.State,
		p.Pincode, mobileJSON, p.Footnote, p.CreatedAt).Scan(&p.ID)
}

// GetCompanyProfile fetches the latest letterhead
func (r *PostgresCompanyProfileRepo) GetCompanyProfile(ctx context.Context) (*models.CompanyProfile, error) {
	p := &models.CompanyProfile{}
	var mobileJSON []byte

	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, address, city, state, pincode, gstin, footnote, mobile, created_at
		FROM company_profile
		ORDER BY id DESC LIMIT 1
	`).Scan(&p.ID, &p.Name, &p.Address, &p.City, &p.State,
		&p.Pincode, &p.GSTIN, &p.Footnote, &mobileJSON, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if len(mobileJSON) > 0 {
		if err := json.Unmarshal(mobileJSON, &p.Mobile); err != nil {
			return nil, err
		}
	}
	return p, nil
}
