package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"freighterp/billing"
	"freighterp/models"
)

const uniqueViolation = "23505"

type PostgresServiceBillRepo struct {
	DB *sql.DB
}

func NewPostgresServiceBillRepo(db *sql.DB) *PostgresServiceBillRepo {
	return &PostgresServiceBillRepo{DB: db}
}

// ------------------------ Helper Functions ------------------------

func (r *PostgresServiceBillRepo) insertSections(ctx context.Context, tx *sql.Tx, b *models.ServiceBill) error {
	if h := b.Handling; h != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO handling_section(
				service_bill_id, bill_number, particulars, qty_shipped, fol_total, depot_total, rh_sales, rate,
				qty_received, shortage, bill_amount, cgst, sgst, total_bill_amount
			)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, b.ID, h.BillNumber, h.Particulars, h.QtyShipped, h.FOLTotal, h.DepotTotal, h.RHSales, h.Rate,
			h.QtyReceived, h.Shortage, h.BillAmount, h.CGST, h.SGST, h.TotalBillAmount)
		if err != nil {
			return sectionErr("handling", err)
		}
	}

	if d := b.Depot; d != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO depot_section(service_bill_id, bill_number, total_depot_qty, total_depot_amount)
			VALUES($1,$2,$3,$4)
		`, b.ID, d.BillNumber, d.TotalDepotQty, d.TotalDepotAmount)
		if err != nil {
			return sectionErr("depot", err)
		}
	}

	if f := b.FOL; f != nil {
		slabsJSON, err := json.Marshal(f.Slabs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO fol_section(service_bill_id, bill_number, rh_qty, state, slabs, grand_total_qty, grand_total_amount)
			VALUES($1,$2,$3,$4,$5,$6,$7)
		`, b.ID, f.BillNumber, f.RHQty, f.State, slabsJSON, f.GrandTotalQty, f.GrandTotalAmount)
		if err != nil {
			return sectionErr("fol", err)
		}
	}
	return nil
}

func sectionErr(section string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return billing.ErrBillNumberTaken
	}
	return fmt.Errorf("insert %s section: %w", section, err)
}

// attach makes the bill own exactly ids among the units of table, inside
// tx. Units it owned before but which are not in ids are released first.
// A unit owned by another bill fails the whole commit.
func attach(ctx context.Context, tx *sql.Tx, cat billing.Category, billID int64, ids []int64) error {
	var release, claim, owners string
	switch cat {
	case billing.CategoryDepot:
		release = `
			UPDATE dealer_trip SET service_bill_id = NULL
			WHERE service_bill_id = $1 AND NOT (id = ANY($2))`
		claim = `
			UPDATE dealer_trip t SET service_bill_id = $1
			FROM slab_group g, destination_entry e
			WHERE g.id = t.slab_group_id AND e.id = g.destination_entry_id
				AND e.transport_type = 'TRANSPORT_DEPOT'
				AND t.id = ANY($2)
				AND (t.service_bill_id IS NULL OR t.service_bill_id = $1)`
		owners = `SELECT id FROM dealer_trip WHERE id = ANY($2) AND service_bill_id IS DISTINCT FROM $1 ORDER BY id`
	case billing.CategoryFOL:
		release = `
			UPDATE destination_entry SET service_bill_id = NULL
			WHERE service_bill_id = $1 AND NOT (id = ANY($2))`
		claim = `
			UPDATE destination_entry SET service_bill_id = $1
			WHERE id = ANY($2)
				AND transport_type = 'TRANSPORT_FOL'
				AND (service_bill_id IS NULL OR service_bill_id = $1)`
		owners = `SELECT id FROM destination_entry WHERE id = ANY($2) AND service_bill_id IS DISTINCT FROM $1 ORDER BY id`
	default:
		return fmt.Errorf("attach: unknown category %q", cat)
	}

	if ids == nil {
		ids = []int64{}
	}
	if _, err := tx.ExecContext(ctx, release, billID, pq.Array(ids)); err != nil {
		return fmt.Errorf("release %s units: %w", cat, err)
	}
	if len(ids) == 0 {
		return nil
	}

	res, err := tx.ExecContext(ctx, claim, billID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("claim %s units: %w", cat, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) == len(ids) {
		return nil
	}

	rows, err := tx.QueryContext(ctx, owners, billID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("find %s conflicts: %w", cat, err)
	}
	defer rows.Close()
	conflict := &billing.ConflictError{Category: cat, Reason: "units are attached to another service bill"}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		conflict.UnitIDs = append(conflict.UnitIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(conflict.UnitIDs) == 0 {
		// ids of the wrong transport type
		conflict.Reason = "units are not available for this billing category"
		conflict.UnitIDs = ids
	}
	return conflict
}

func (r *PostgresServiceBillRepo) attachAll(ctx context.Context, tx *sql.Tx, b *models.ServiceBill) error {
	var tripIDs, entryIDs []int64
	if b.Depot != nil {
		tripIDs = b.Depot.SelectedTripIDs
	}
	if b.FOL != nil {
		entryIDs = b.FOL.SelectedEntryIDs
	}
	if err := attach(ctx, tx, billing.CategoryDepot, b.ID, tripIDs); err != nil {
		return err
	}
	if len(entryIDs) > 0 {
		if err := lockFOLEntries(ctx, tx, b.FOL); err != nil {
			return err
		}
	}
	return attach(ctx, tx, billing.CategoryFOL, b.ID, entryIDs)
}

// lockFOLEntries locks the selected entries for the rest of tx and checks
// the section's preview against them as locked. Entry updates take the
// same row lock, so the snapshot cannot drift before commit.
func lockFOLEntries(ctx context.Context, tx *sql.Tx, sec *models.FOLSection) error {
	entries, err := loadEntries(ctx, tx, ` WHERE e.id = ANY($1) ORDER BY e.id FOR UPDATE OF e`, pq.Array(sec.SelectedEntryIDs))
	if err != nil {
		return fmt.Errorf("lock fol entries: %w", err)
	}
	return billing.VerifyFOLSnapshot(sec, entries)
}

// ------------------------ Create / Update ------------------------

func (r *PostgresServiceBillRepo) CreateServiceBill(ctx context.Context, b *models.ServiceBill) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO service_bill(bill_date, to_address, letter_note, date_of_clearing, product, hsn_code, year, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, b.BillDate, b.ToAddress, b.LetterNote, b.DateOfClearing, b.Product, b.HSNCode, b.Year, b.CreatedAt).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert service bill: %w", err)
	}

	if err := r.insertSections(ctx, tx, b); err != nil {
		b.ID = 0
		return err
	}
	if err := r.attachAll(ctx, tx, b); err != nil {
		b.ID = 0
		return err
	}
	if err := tx.Commit(); err != nil {
		b.ID = 0
		return err
	}
	return nil
}

func (r *PostgresServiceBillRepo) UpdateServiceBill(ctx context.Context, b *models.ServiceBill) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE service_bill SET
			bill_date=$1,
			to_address=$2,
			letter_note=$3,
			date_of_clearing=$4,
			product=$5,
			hsn_code=$6,
			year=$7,
			updated_at=$8
		WHERE id=$9
	`, b.BillDate, b.ToAddress, b.LetterNote, b.DateOfClearing, b.Product, b.HSNCode, b.Year, now, b.ID)
	if err != nil {
		return fmt.Errorf("update service bill %d: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.ErrNotFound
	}
	b.UpdatedAt = &now

	// Refresh sections
	for _, table := range []string{"handling_section", "depot_section", "fol_section"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE service_bill_id=$1`, b.ID); err != nil {
			return err
		}
	}
	if err := r.insertSections(ctx, tx, b); err != nil {
		return err
	}
	if err := r.attachAll(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

// ------------------------ Read ------------------------

const billSelect = `
	SELECT id, bill_date, to_address, letter_note, date_of_clearing, product, hsn_code, year,
		created_at, updated_at, pdf_created_at, pdf_path
	FROM service_bill
`

func scanBill(row interface{ Scan(...any) error }, b *models.ServiceBill) error {
	return row.Scan(&b.ID, &b.BillDate, &b.ToAddress, &b.LetterNote, &b.DateOfClearing, &b.Product, &b.HSNCode, &b.Year,
		&b.CreatedAt, &b.UpdatedAt, &b.PdfCreatedAt, &b.PdfPath)
}

func (r *PostgresServiceBillRepo) loadSections(ctx context.Context, b *models.ServiceBill) error {
	h := &models.HandlingSection{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT bill_number, particulars, qty_shipped, fol_total, depot_total, rh_sales, rate,
			qty_received, shortage, bill_amount, cgst, sgst, total_bill_amount
		FROM handling_section WHERE service_bill_id=$1
	`, b.ID).Scan(&h.BillNumber, &h.Particulars, &h.QtyShipped, &h.FOLTotal, &h.DepotTotal, &h.RHSales, &h.Rate,
		&h.QtyReceived, &h.Shortage, &h.BillAmount, &h.CGST, &h.SGST, &h.TotalBillAmount)
	switch {
	case err == nil:
		b.Handling = h
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("load handling section: %w", err)
	}

	d := &models.DepotSection{}
	err = r.DB.QueryRowContext(ctx, `
		SELECT bill_number, total_depot_qty, total_depot_amount
		FROM depot_section WHERE service_bill_id=$1
	`, b.ID).Scan(&d.BillNumber, &d.TotalDepotQty, &d.TotalDepotAmount)
	switch {
	case err == nil:
		if d.SelectedTripIDs, err = r.ownedIDs(ctx, `SELECT id FROM dealer_trip WHERE service_bill_id=$1 ORDER BY id`, b.ID); err != nil {
			return err
		}
		b.Depot = d
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("load depot section: %w", err)
	}

	f := &models.FOLSection{}
	var slabsJSON []byte
	err = r.DB.QueryRowContext(ctx, `
		SELECT bill_number, rh_qty, state, slabs, grand_total_qty, grand_total_amount
		FROM fol_section WHERE service_bill_id=$1
	`, b.ID).Scan(&f.BillNumber, &f.RHQty, &f.State, &slabsJSON, &f.GrandTotalQty, &f.GrandTotalAmount)
	switch {
	case err == nil:
		if len(slabsJSON) > 0 {
			if err := json.Unmarshal(slabsJSON, &f.Slabs); err != nil {
				return fmt.Errorf("decode fol slabs: %w", err)
			}
		}
		if f.SelectedEntryIDs, err = r.ownedIDs(ctx, `SELECT id FROM destination_entry WHERE service_bill_id=$1 ORDER BY id`, b.ID); err != nil {
			return err
		}
		b.FOL = f
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("load fol section: %w", err)
	}
	return nil
}

func (r *PostgresServiceBillRepo) ownedIDs(ctx context.Context, query string, billID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresServiceBillRepo) GetServiceBill(ctx context.Context, id int64) (*models.ServiceBill, error) {
	b := &models.ServiceBill{}
	if err := scanBill(r.DB.QueryRowContext(ctx, billSelect+` WHERE id=$1`, id), b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get service bill %d: %w", id, err)
	}
	if err := r.loadSections(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PostgresServiceBillRepo) ListServiceBills(ctx context.Context) ([]models.ServiceBill, error) {
	rows, err := r.DB.QueryContext(ctx, billSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list service bills: %w", err)
	}
	defer rows.Close()

	bills := []models.ServiceBill{}
	for rows.Next() {
		var b models.ServiceBill
		if err := scanBill(rows, &b); err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range bills {
		if err := r.loadSections(ctx, &bills[i]); err != nil {
			return nil, err
		}
	}
	return bills, nil
}

// ------------------------ PDF Helpers ------------------------

func (r *PostgresServiceBillRepo) UpdateServiceBillPDF(ctx context.Context, id int64, path string, createdAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE service_bill
		SET pdf_path = $1, pdf_created_at = $2
		WHERE id = $3
	`, path, createdAt, id)
	return err
}
