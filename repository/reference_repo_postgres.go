package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"freighterp/models"
)

type PostgresReferenceRepo struct {
	DB *sql.DB
}

func NewPostgresReferenceRepo(db *sql.DB) *PostgresReferenceRepo {
	return &PostgresReferenceRepo{DB: db}
}

func (r *PostgresReferenceRepo) GetDestination(ctx context.Context, id int64) (*models.Destination, error) {
	d := &models.Destination{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, place, description, is_garage FROM destination WHERE id=$1
	`, id).Scan(&d.ID, &d.Name, &d.Place, &d.Description, &d.IsGarage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get destination %d: %w", id, err)
	}
	return d, nil
}

// ListDealersNear returns the active dealers serving places of the
// destination, restricted to places whose distance falls in the slab when
// rateSlabID is given.
func (r *PostgresReferenceRepo) ListDealersNear(ctx context.Context, destinationID int64, rateSlabID *int64) ([]models.DealerNear, error) {
	query := `
		SELECT d.id, p.id, p.distance, d.name, p.name
		FROM dealer d
		JOIN dealer_place dp ON dp.dealer_id = d.id
		JOIN place p ON p.id = dp.place_id
	`
	args := []any{destinationID}
	if rateSlabID != nil {
		query += ` JOIN rate_slab rs ON rs.id = $2 AND p.distance >= rs.from_km AND p.distance < rs.to_km`
		args = append(args, *rateSlabID)
	}
	query += `
		WHERE p.destination_id = $1 AND d.active
		ORDER BY p.distance, d.name
	`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dealers near %d: %w", destinationID, err)
	}
	defer rows.Close()

	out := []models.DealerNear{}
	for rows.Next() {
		var n models.DealerNear
		if err := rows.Scan(&n.DealerID, &n.PlaceID, &n.DistanceKM, &n.DealerName, &n.PlaceName); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
