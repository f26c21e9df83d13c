package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"freighterp/billing"
	"freighterp/models"
)

type PostgresRateSlabRepo struct {
	DB *sql.DB
}

func NewPostgresRateSlabRepo(db *sql.DB) *PostgresRateSlabRepo {
	return &PostgresRateSlabRepo{DB: db}
}

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listRateSlabs(ctx context.Context, q rowQuerier) ([]models.RateSlab, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, from_km, to_km, rate, is_mtk
		FROM rate_slab
		ORDER BY from_km, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slabs := []models.RateSlab{}
	for rows.Next() {
		var s models.RateSlab
		if err := rows.Scan(&s.ID, &s.FromKM, &s.ToKM, &s.Rate, &s.IsMTK); err != nil {
			return nil, err
		}
		slabs = append(slabs, s)
	}
	return slabs, rows.Err()
}

func (r *PostgresRateSlabRepo) ListRateSlabs(ctx context.Context) ([]models.RateSlab, error) {
	slabs, err := listRateSlabs(ctx, r.DB)
	if err != nil {
		return nil, fmt.Errorf("list rate slabs: %w", err)
	}
	return slabs, nil
}

func (r *PostgresRateSlabRepo) GetRateSlab(ctx context.Context, id int64) (*models.RateSlab, error) {
	s := &models.RateSlab{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, from_km, to_km, rate, is_mtk FROM rate_slab WHERE id=$1
	`, id).Scan(&s.ID, &s.FromKM, &s.ToKM, &s.Rate, &s.IsMTK)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rate slab %d: %w", id, err)
	}
	return s, nil
}

// SaveRateSlab inserts slab, or updates it when slab.ID is set. The table
// is locked for the overlap check so two concurrent saves cannot both pass.
func (r *PostgresRateSlabRepo) SaveRateSlab(ctx context.Context, slab *models.RateSlab) error {
	if err := billing.ValidateSlab(*slab); err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE rate_slab IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock rate slabs: %w", err)
	}
	table, err := listRateSlabs(ctx, tx)
	if err != nil {
		return fmt.Errorf("list rate slabs: %w", err)
	}
	if err := billing.CheckOverlap(table, *slab); err != nil {
		return err
	}

	if slab.ID == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO rate_slab(from_km, to_km, rate, is_mtk)
			VALUES($1,$2,$3,$4)
			RETURNING id
		`, slab.FromKM, slab.ToKM, slab.Rate, slab.IsMTK).Scan(&slab.ID)
		if err != nil {
			return fmt.Errorf("insert rate slab: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE rate_slab SET from_km=$1, to_km=$2, rate=$3, is_mtk=$4
			WHERE id=$5
		`, slab.FromKM, slab.ToKM, slab.Rate, slab.IsMTK, slab.ID)
		if err != nil {
			return fmt.Errorf("update rate slab %d: %w", slab.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return billing.ErrNotFound
		}
	}

	return tx.Commit()
}

// DeleteRateSlab removes the band. Slab groups keep their snapshot.
func (r *PostgresRateSlabRepo) DeleteRateSlab(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM rate_slab WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete rate slab %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.ErrNotFound
	}
	return nil
}
