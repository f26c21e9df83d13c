package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"freighterp/billing"
	"freighterp/models"
)

type PostgresDestinationEntryRepo struct {
	DB *sql.DB
}

func NewPostgresDestinationEntryRepo(db *sql.DB) *PostgresDestinationEntryRepo {
	return &PostgresDestinationEntryRepo{DB: db}
}

// ------------------------ Helper Functions ------------------------

func (r *PostgresDestinationEntryRepo) insertGroups(ctx context.Context, tx *sql.Tx, e *models.DestinationEntry) error {
	for gi := range e.SlabGroups {
		g := &e.SlabGroups[gi]
		err := tx.QueryRowContext(ctx, `
			INSERT INTO slab_group(destination_entry_id, rate_slab_id, slab_from_km, slab_to_km, is_mtk, rate, print_page_no, position)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING id
		`, e.ID, g.RateSlab.ID, g.RateSlab.FromKM, g.RateSlab.ToKM, g.RateSlab.IsMTK, g.Rate, g.PrintPageNo, gi).Scan(&g.ID)
		if err != nil {
			return fmt.Errorf("insert slab group: %w", err)
		}

		for ti := range g.Trips {
			t := &g.Trips[ti]
			err := tx.QueryRowContext(ctx, `
				INSERT INTO dealer_trip(
					slab_group_id, dealer_id, despatched_to, mda_number, date, no_bags, km,
					description, remarks, mt, mtk, amount, position
				)
				VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
				RETURNING id
			`, g.ID, t.DealerID, t.DespatchedTo, t.MDANumber, t.Date, t.NoBags, t.KM,
				t.Description, t.Remarks, t.WeightMT, t.WeightMTK, t.Amount, ti,
			).Scan(&t.ID)
			if err != nil {
				return fmt.Errorf("insert dealer trip: %w", err)
			}
		}
	}
	return nil
}

// lockUnbilled locks the entry row and fails when the entry, or any of
// its depot trips, belongs to a service bill.
func (r *PostgresDestinationEntryRepo) lockUnbilled(ctx context.Context, tx *sql.Tx, id int64) error {
	var billID sql.NullInt64
	err := tx.QueryRowContext(ctx, `
		SELECT service_bill_id FROM destination_entry WHERE id=$1 FOR UPDATE
	`, id).Scan(&billID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return billing.ErrNotFound
		}
		return err
	}
	if billID.Valid {
		return billing.ErrEntryAlreadyBilled
	}

	var tripBilled bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM dealer_trip t
			JOIN slab_group g ON g.id = t.slab_group_id
			WHERE g.destination_entry_id = $1 AND t.service_bill_id IS NOT NULL
		)
	`, id).Scan(&tripBilled)
	if err != nil {
		return err
	}
	if tripBilled {
		return billing.ErrEntryAlreadyBilled
	}
	return nil
}

// ------------------------ Create / Update ------------------------

func (r *PostgresDestinationEntryRepo) CreateDestinationEntry(ctx context.Context, e *models.DestinationEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO destination_entry(destination_id, transport_type, date, bill_number, letter_note, to_address, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, e.DestinationID, e.TransportType, e.Date, e.BillNumber, e.LetterNote, e.ToAddress, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert destination entry: %w", err)
	}

	if err := r.insertGroups(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateDestinationEntry replaces the whole tree of an unbilled entry.
func (r *PostgresDestinationEntryRepo) UpdateDestinationEntry(ctx context.Context, e *models.DestinationEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.lockUnbilled(ctx, tx, e.ID); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE destination_entry SET
			destination_id=$1,
			transport_type=$2,
			date=$3,
			bill_number=$4,
			letter_note=$5,
			to_address=$6,
			updated_at=$7
		WHERE id=$8
	`, e.DestinationID, e.TransportType, e.Date, e.BillNumber, e.LetterNote, e.ToAddress, now, e.ID)
	if err != nil {
		return fmt.Errorf("update destination entry %d: %w", e.ID, err)
	}
	e.UpdatedAt = &now

	// Refresh groups and trips
	if _, err := tx.ExecContext(ctx, `DELETE FROM slab_group WHERE destination_entry_id=$1`, e.ID); err != nil {
		return err
	}
	if err := r.insertGroups(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresDestinationEntryRepo) DeleteDestinationEntry(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.lockUnbilled(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM destination_entry WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete destination entry %d: %w", id, err)
	}
	return tx.Commit()
}

// ------------------------ Read ------------------------

const entrySelect = `
	SELECT
		e.id, e.destination_id, e.transport_type, e.date, e.bill_number, e.letter_note, e.to_address,
		e.service_bill_id, e.created_at, e.updated_at, e.pdf_created_at, e.pdf_path,
		d.id, d.name, d.place, d.description, d.is_garage
	FROM destination_entry e
	JOIN destination d ON d.id = e.destination_id
`

func (r *PostgresDestinationEntryRepo) load(ctx context.Context, where string, args ...any) ([]models.DestinationEntry, error) {
	return loadEntries(ctx, r.DB, where, args...)
}

// loadEntries reads entries with their groups and trips through q, which
// may be a transaction holding locks on them.
func loadEntries(ctx context.Context, q rowQuerier, where string, args ...any) ([]models.DestinationEntry, error) {
	rows, err := q.QueryContext(ctx, entrySelect+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.DestinationEntry{}
	for rows.Next() {
		var e models.DestinationEntry
		var d models.Destination
		err := rows.Scan(
			&e.ID, &e.DestinationID, &e.TransportType, &e.Date, &e.BillNumber, &e.LetterNote, &e.ToAddress,
			&e.ServiceBillID, &e.CreatedAt, &e.UpdatedAt, &e.PdfCreatedAt, &e.PdfPath,
			&d.ID, &d.Name, &d.Place, &d.Description, &d.IsGarage,
		)
		if err != nil {
			return nil, err
		}
		e.Destination = &d
		e.SlabGroups = []models.SlabGroup{}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	// Load groups and trips in two queries (to avoid N+1)
	ids := make([]int64, len(entries))
	index := make(map[int64]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		index[e.ID] = i
	}

	groupRows, err := q.QueryContext(ctx, `
		SELECT id, destination_entry_id, rate_slab_id, slab_from_km, slab_to_km, is_mtk, rate, print_page_no
		FROM slab_group
		WHERE destination_entry_id = ANY($1)
		ORDER BY destination_entry_id, position
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer groupRows.Close()

	type groupRef struct{ entry, group int }
	groups := map[int64]groupRef{}
	var groupIDs []int64
	for groupRows.Next() {
		var g models.SlabGroup
		var entryID int64
		var slabID sql.NullInt64
		var page sql.NullInt64
		s := &models.RateSlab{}
		if err := groupRows.Scan(&g.ID, &entryID, &slabID, &s.FromKM, &s.ToKM, &s.IsMTK, &g.Rate, &page); err != nil {
			return nil, err
		}
		s.ID = slabID.Int64
		s.Rate = g.Rate
		g.RateSlab = s
		g.Key = fmt.Sprintf("g%d", g.ID)
		g.Trips = []models.DealerTrip{}
		if page.Valid {
			p := int(page.Int64)
			g.PrintPageNo = &p
		}
		ei := index[entryID]
		entries[ei].SlabGroups = append(entries[ei].SlabGroups, g)
		groups[g.ID] = groupRef{entry: ei, group: len(entries[ei].SlabGroups) - 1}
		groupIDs = append(groupIDs, g.ID)
	}
	if err := groupRows.Err(); err != nil {
		return nil, err
	}

	if len(groupIDs) > 0 {
		tripRows, err := q.QueryContext(ctx, `
			SELECT id, slab_group_id, dealer_id, despatched_to, mda_number, date, no_bags, km,
				description, remarks, mt, mtk, amount, service_bill_id
			FROM dealer_trip
			WHERE slab_group_id = ANY($1)
			ORDER BY slab_group_id, position
		`, pq.Array(groupIDs))
		if err != nil {
			return nil, err
		}
		defer tripRows.Close()

		for tripRows.Next() {
			var t models.DealerTrip
			var groupID int64
			err := tripRows.Scan(&t.ID, &groupID, &t.DealerID, &t.DespatchedTo, &t.MDANumber, &t.Date, &t.NoBags, &t.KM,
				&t.Description, &t.Remarks, &t.WeightMT, &t.WeightMTK, &t.Amount, &t.ServiceBillID)
			if err != nil {
				return nil, err
			}
			t.Key = fmt.Sprintf("t%d", t.ID)
			ref := groups[groupID]
			g := &entries[ref.entry].SlabGroups[ref.group]
			g.Trips = append(g.Trips, t)
		}
		if err := tripRows.Err(); err != nil {
			return nil, err
		}
	}

	for i := range entries {
		billing.WithTotals(&entries[i])
	}
	return entries, nil
}

func (r *PostgresDestinationEntryRepo) GetDestinationEntry(ctx context.Context, id int64) (*models.DestinationEntry, error) {
	entries, err := r.load(ctx, ` WHERE e.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get destination entry %d: %w", id, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r *PostgresDestinationEntryRepo) GetDestinationEntries(ctx context.Context, ids []int64) ([]models.DestinationEntry, error) {
	entries, err := r.load(ctx, ` WHERE e.id = ANY($1) ORDER BY e.id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get destination entries: %w", err)
	}
	return entries, nil
}

// ListDestinationEntries lists every entry, newest first. An empty
// transportType lists both kinds.
func (r *PostgresDestinationEntryRepo) ListDestinationEntries(ctx context.Context, transportType models.TransportType) ([]models.DestinationEntry, error) {
	var (
		entries []models.DestinationEntry
		err     error
	)
	if transportType == "" {
		entries, err = r.load(ctx, ` ORDER BY e.created_at DESC`)
	} else {
		entries, err = r.load(ctx, ` WHERE e.transport_type = $1 ORDER BY e.created_at DESC`, transportType)
	}
	if err != nil {
		return nil, fmt.Errorf("list destination entries: %w", err)
	}
	return entries, nil
}

// ------------------------ Unbilled pool ------------------------

func (r *PostgresDestinationEntryRepo) ListDepotRows(ctx context.Context, excludingBillID *int64) ([]models.DepotRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT t.id, e.id, COALESCE(NULLIF(d.place, ''), d.name), COALESCE(NULLIF(t.date, ''), e.date),
			t.km, t.mt, t.mtk, g.rate, t.amount, t.service_bill_id
		FROM dealer_trip t
		JOIN slab_group g ON g.id = t.slab_group_id
		JOIN destination_entry e ON e.id = g.destination_entry_id
		JOIN destination d ON d.id = e.destination_id
		WHERE e.transport_type = 'TRANSPORT_DEPOT'
			AND (t.service_bill_id IS NULL OR t.service_bill_id = $1)
		ORDER BY e.date, e.id, g.position, t.position
	`, excludingBillID)
	if err != nil {
		return nil, fmt.Errorf("list depot rows: %w", err)
	}
	defer rows.Close()

	out := []models.DepotRow{}
	for rows.Next() {
		var row models.DepotRow
		err := rows.Scan(&row.ID, &row.DestinationEntryID, &row.Destination, &row.Date,
			&row.KM, &row.QtyMT, &row.MTKM, &row.Rate, &row.Amount, &row.ServiceBillID)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresDestinationEntryRepo) ListFOLCandidates(ctx context.Context, excludingBillID *int64) ([]models.FOLCandidateEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT e.id, e.date, e.bill_number, e.service_bill_id,
			d.id, d.name, d.place, d.description, d.is_garage
		FROM destination_entry e
		JOIN destination d ON d.id = e.destination_id
		WHERE e.transport_type = 'TRANSPORT_FOL'
			AND (e.service_bill_id IS NULL OR e.service_bill_id = $1)
		ORDER BY e.date, e.id
	`, excludingBillID)
	if err != nil {
		return nil, fmt.Errorf("list fol entries: %w", err)
	}
	defer rows.Close()

	out := []models.FOLCandidateEntry{}
	index := map[int64]int{}
	for rows.Next() {
		var c models.FOLCandidateEntry
		d := &c.Destination
		if err := rows.Scan(&c.ID, &c.Date, &c.BillNumber, &c.ServiceBillID,
			&d.ID, &d.Name, &d.Place, &d.Description, &d.IsGarage); err != nil {
			return nil, err
		}
		c.RateRanges = []string{}
		c.TotalMT = decimal.Zero
		c.TotalAmount = decimal.Zero
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i, c := range out {
		ids[i] = c.ID
	}
	sums, err := r.DB.QueryContext(ctx, `
		SELECT g.destination_entry_id, g.slab_from_km, g.slab_to_km,
			COALESCE(SUM(t.mt), 0), COALESCE(SUM(t.amount), 0)
		FROM slab_group g
		LEFT JOIN dealer_trip t ON t.slab_group_id = g.id
		WHERE g.destination_entry_id = ANY($1)
		GROUP BY g.id
		ORDER BY g.destination_entry_id, g.position
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("sum fol entries: %w", err)
	}
	defer sums.Close()

	for sums.Next() {
		var entryID int64
		var s models.RateSlab
		var mt, amount decimal.Decimal
		if err := sums.Scan(&entryID, &s.FromKM, &s.ToKM, &mt, &amount); err != nil {
			return nil, err
		}
		c := &out[index[entryID]]
		c.RateRanges = append(c.RateRanges, s.Label())
		c.TotalMT = c.TotalMT.Add(mt)
		c.TotalAmount = c.TotalAmount.Add(amount)
	}
	return out, sums.Err()
}

// ------------------------ PDF Helpers ------------------------

func (r *PostgresDestinationEntryRepo) UpdateDestinationEntryPDF(ctx context.Context, id int64, path string, createdAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE destination_entry
		SET pdf_path = $1, pdf_created_at = $2
		WHERE id = $3
	`, path, createdAt, id)
	return err
}
