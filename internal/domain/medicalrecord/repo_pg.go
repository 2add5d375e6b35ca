package medicalrecord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo returns the PostgreSQL record store.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func pgDateDest(p **time.Time) interface{} { return p }

func pgDateArg(t *time.Time) interface{} { return t }

func (r *repoPG) List(ctx context.Context, f Filter) ([]*MedicalRecord, int, error) {
	q := buildFilterQuery(f, dollarPlaceholder, func(t time.Time) interface{} { return t })

	var total int
	if err := r.pool.QueryRow(ctx, q.countSQL(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical records: %w", err)
	}

	sql, args := q.dataSQL(dollarPlaceholder, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	var records []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows, pgDateDest)
		if err != nil {
			return nil, 0, fmt.Errorf("scan medical record: %w", err)
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate medical records: %w", err)
	}
	return records, total, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int) (*MedicalRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM `+recordFrom+` WHERE m.medical_record_id = $1`, id)
	m, err := scanRecord(row, pgDateDest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get medical record %d: %w", id, err)
	}
	return m, nil
}

func (r *repoPG) Create(ctx context.Context, m *MedicalRecord) error {
	err := r.pool.QueryRow(ctx,
		insertSQL(dollarPlaceholder)+` RETURNING medical_record_id`,
		insertArgs(m, pgDateArg)...,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, m *MedicalRecord) error {
	tag, err := r.pool.Exec(ctx, updateSQL(dollarPlaceholder), updateArgs(m, pgDateArg)...)
	if err != nil {
		return fmt.Errorf("update medical record %d: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SoftDelete(ctx context.Context, d Deletion) error {
	tag, err := r.pool.Exec(ctx, softDeleteSQL(dollarPlaceholder), d.DeletedBy, d.Reason, d.At, d.ID)
	if err != nil {
		return fmt.Errorf("soft delete medical record %d: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) StatusExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM status WHERE status_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check status: %w", err)
	}
	return exists, nil
}

func (r *repoPG) MedicalRecordTypeExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM medical_record_type WHERE medical_record_type_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check medical record type: %w", err)
	}
	return exists, nil
}

func (r *repoPG) ListStatuses(ctx context.Context) ([]*Status, error) {
	rows, err := r.pool.Query(ctx, `SELECT status_id, name, description FROM status ORDER BY status_id`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var out []*Status
	for rows.Next() {
		var s Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) ListMedicalRecordTypes(ctx context.Context) ([]*MedicalRecordType, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT medical_record_type_id, name, description FROM medical_record_type ORDER BY medical_record_type_id`)
	if err != nil {
		return nil, fmt.Errorf("list medical record types: %w", err)
	}
	defer rows.Close()

	var out []*MedicalRecordType
	for rows.Next() {
		var t MedicalRecordType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("scan medical record type: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// execer is the part of a pool or transaction the seed needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// SeedReferenceData inserts the default statuses and record types in one
// transaction, leaving existing rows untouched. It returns the number of
// rows inserted.
func SeedReferenceData(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted, err := seedReferenceRows(ctx, tx)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return inserted, nil
}

func seedReferenceRows(ctx context.Context, q execer) (int64, error) {
	var inserted int64
	for _, s := range DefaultStatuses() {
		tag, err := q.Exec(ctx,
			`INSERT INTO status (status_id, name, description) VALUES ($1, $2, $3)
			 ON CONFLICT (status_id) DO NOTHING`, s.ID, s.Name, s.Description)
		if err != nil {
			return inserted, fmt.Errorf("seed status %d: %w", s.ID, err)
		}
		inserted += tag.RowsAffected()
	}
	for _, t := range DefaultMedicalRecordTypes() {
		tag, err := q.Exec(ctx,
			`INSERT INTO medical_record_type (medical_record_type_id, name, description) VALUES ($1, $2, $3)
			 ON CONFLICT (medical_record_type_id) DO NOTHING`, t.ID, t.Name, t.Description)
		if err != nil {
			return inserted, fmt.Errorf("seed medical record type %d: %w", t.ID, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
