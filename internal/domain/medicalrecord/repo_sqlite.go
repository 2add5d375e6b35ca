package medicalrecord

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqliteSchema mirrors migrations/001_medical_records.sql for the embedded
// store. Dates are stored as YYYY-MM-DD text.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS status (
	status_id INTEGER PRIMARY KEY,
	name TEXT,
	description TEXT
);
CREATE TABLE IF NOT EXISTS medical_record_type (
	medical_record_type_id INTEGER PRIMARY KEY,
	name TEXT,
	description TEXT
);
CREATE TABLE IF NOT EXISTS t_medical_record (
	medical_record_id INTEGER PRIMARY KEY AUTOINCREMENT,
	diagnosis TEXT,
	start_date TEXT,
	end_date TEXT,
	status_id INTEGER REFERENCES status (status_id),
	medical_record_type_id INTEGER REFERENCES medical_record_type (medical_record_type_id),
	observations TEXT,
	audiometry TEXT,
	position_change TEXT,
	execute_micros TEXT,
	execute_extra TEXT,
	voice_evaluation TEXT,
	disability TEXT,
	area_change TEXT,
	disability_percentage INTEGER,
	mother_data TEXT,
	father_data TEXT,
	other_family_data TEXT,
	medical_board TEXT,
	created_by TEXT,
	creation_date TEXT,
	modified_by TEXT,
	modification_date TEXT,
	deleted_by TEXT,
	deletion_date TEXT,
	deletion_reason TEXT
);
INSERT OR IGNORE INTO status (status_id, name, description) VALUES
	(1, 'Active', 'Record is open'),
	(2, 'Inactive', 'Record is closed');
INSERT OR IGNORE INTO medical_record_type (medical_record_type_id, name, description) VALUES
	(1, 'Pre-employment', 'Examination before hiring'),
	(2, 'Periodic', 'Recurring occupational examination'),
	(3, 'Exit', 'Examination at the end of employment');
`

type repoSQLite struct {
	db *sql.DB
}

// NewSQLiteRepo returns a record store over an open modernc.org/sqlite
// handle, creating the schema if needed.
func NewSQLiteRepo(ctx context.Context, db *sql.DB) (Repository, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &repoSQLite{db: db}, nil
}

// sqliteDate scans a text date column into a *time.Time field.
type sqliteDate struct {
	dst **time.Time
}

func (d sqliteDate) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*d.dst = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case time.Time:
		t := NewDate(v).Time()
		*d.dst = &t
		return nil
	default:
		return fmt.Errorf("unsupported date column type %T", src)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	t := parsed.Time()
	*d.dst = &t
	return nil
}

func sqliteDateDest(p **time.Time) interface{} { return sqliteDate{dst: p} }

func sqliteDateArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}

func (r *repoSQLite) List(ctx context.Context, f Filter) ([]*MedicalRecord, int, error) {
	q := buildFilterQuery(f, questionPlaceholder, func(t time.Time) interface{} { return t.Format(DateLayout) })

	var total int
	if err := r.db.QueryRowContext(ctx, q.countSQL(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical records: %w", err)
	}

	query, args := q.dataSQL(questionPlaceholder, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list medical records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows, sqliteDateDest)
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

func (r *repoSQLite) GetByID(ctx context.Context, id int) (*MedicalRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM `+recordFrom+` WHERE m.medical_record_id = ?`, id)
	m, err := scanRecord(row, sqliteDateDest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get medical record %d: %w", id, err)
	}
	return m, nil
}

func (r *repoSQLite) Create(ctx context.Context, m *MedicalRecord) error {
	res, err := r.db.ExecContext(ctx, insertSQL(questionPlaceholder), insertArgs(m, sqliteDateArg)...)
	if err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	m.ID = int(id)
	return nil
}

func (r *repoSQLite) Update(ctx context.Context, m *MedicalRecord) error {
	res, err := r.db.ExecContext(ctx, updateSQL(questionPlaceholder), updateArgs(m, sqliteDateArg)...)
	if err != nil {
		return fmt.Errorf("update medical record %d: %w", m.ID, err)
	}
	return affectedOrNotFound(res)
}

func (r *repoSQLite) SoftDelete(ctx context.Context, d Deletion) error {
	res, err := r.db.ExecContext(ctx, softDeleteSQL(questionPlaceholder),
		d.DeletedBy, d.Reason, d.At.Format(DateLayout), d.ID)
	if err != nil {
		return fmt.Errorf("soft delete medical record %d: %w", d.ID, err)
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoSQLite) StatusExists(ctx context.Context, id int) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM status WHERE status_id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check status: %w", err)
	}
	return n > 0, nil
}

func (r *repoSQLite) MedicalRecordTypeExists(ctx context.Context, id int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM medical_record_type WHERE medical_record_type_id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check medical record type: %w", err)
	}
	return n > 0, nil
}

func (r *repoSQLite) ListStatuses(ctx context.Context) ([]*Status, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status_id, name, description FROM status ORDER BY status_id`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func (r *repoSQLite) ListMedicalRecordTypes(ctx context.Context) ([]*MedicalRecordType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT medical_record_type_id, name, description FROM medical_record_type ORDER BY medical_record_type_id`)
	if err != nil {
		return nil, fmt.Errorf("list medical record types: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
