package medicalrecord

import (
	"fmt"
	"strings"
	"time"
)

// Column list shared by the SQL repositories. The joined names come last.
const recordCols = `m.medical_record_id, m.diagnosis, m.start_date, m.end_date,
	m.status_id, m.medical_record_type_id, m.observations,
	m.audiometry, m.position_change, m.execute_micros, m.execute_extra,
	m.voice_evaluation, m.disability, m.area_change, m.disability_percentage,
	m.mother_data, m.father_data, m.other_family_data, m.medical_board,
	m.created_by, m.creation_date, m.modified_by, m.modification_date,
	m.deleted_by, m.deletion_date, m.deletion_reason,
	s.name, t.name`

const recordFrom = `t_medical_record m
	LEFT JOIN status s ON s.status_id = m.status_id
	LEFT JOIN medical_record_type t ON t.medical_record_type_id = m.medical_record_type_id`

// placeholder renders the n-th (1-based) bind parameter of a dialect.
type placeholder func(n int) string

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }

// filterQuery builds the WHERE clause of a filtered list. dateArg converts
// date bounds into the driver's bind representation.
type filterQuery struct {
	where string
	args  []interface{}
}

func buildFilterQuery(f Filter, ph placeholder, dateArg func(time.Time) interface{}) filterQuery {
	var clauses []string
	var args []interface{}
	add := func(expr string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(expr, ph(len(args))))
	}

	if f.StatusID != nil {
		add("m.status_id = %s", *f.StatusID)
	}
	if f.StartDate != nil {
		add("m.start_date >= %s", dateArg(*f.StartDate))
	}
	if f.EndDate != nil {
		add("m.end_date <= %s", dateArg(*f.EndDate))
	}
	if f.MedicalRecordTypeID != nil {
		add("m.medical_record_type_id = %s", *f.MedicalRecordTypeID)
	}

	q := filterQuery{args: args}
	if len(clauses) > 0 {
		q.where = " WHERE " + strings.Join(clauses, " AND ")
	}
	return q
}

func (q filterQuery) countSQL() string {
	return `SELECT COUNT(*) FROM ` + recordFrom + q.where
}

func (q filterQuery) dataSQL(ph placeholder, limit, offset int) (string, []interface{}) {
	args := append(append([]interface{}{}, q.args...), limit, offset)
	sql := `SELECT ` + recordCols + ` FROM ` + recordFrom + q.where +
		` ORDER BY m.medical_record_id LIMIT ` + ph(len(args)-1) + ` OFFSET ` + ph(len(args))
	return sql, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one row of recordCols. dateDest adapts a date field to
// whatever the driver can scan into.
func scanRecord(row rowScanner, dateDest func(**time.Time) interface{}) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(
		&m.ID, &m.Diagnosis, dateDest(&m.StartDate), dateDest(&m.EndDate),
		&m.StatusID, &m.MedicalRecordTypeID, &m.Observations,
		&m.Audiometry, &m.PositionChange, &m.ExecuteMicros, &m.ExecuteExtra,
		&m.VoiceEvaluation, &m.Disability, &m.AreaChange, &m.DisabilityPercentage,
		&m.MotherData, &m.FatherData, &m.OtherFamilyData, &m.MedicalBoard,
		&m.CreatedBy, dateDest(&m.CreationDate), &m.ModifiedBy, dateDest(&m.ModificationDate),
		&m.DeletedBy, dateDest(&m.DeletionDate), &m.DeletionReason,
		&m.StatusName, &m.MedicalRecordTypeName,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// insertCols must stay aligned with insertArgs, updateCols with updateArgs.
const insertCols = `diagnosis, start_date, end_date, status_id, medical_record_type_id, observations,
	audiometry, position_change, execute_micros, execute_extra, voice_evaluation,
	disability, area_change, disability_percentage,
	mother_data, father_data, other_family_data, medical_board,
	created_by, creation_date`

func insertArgs(m *MedicalRecord, date func(*time.Time) interface{}) []interface{} {
	return []interface{}{
		m.Diagnosis, date(m.StartDate), date(m.EndDate), m.StatusID, m.MedicalRecordTypeID, m.Observations,
		m.Audiometry, m.PositionChange, m.ExecuteMicros, m.ExecuteExtra, m.VoiceEvaluation,
		m.Disability, m.AreaChange, m.DisabilityPercentage,
		m.MotherData, m.FatherData, m.OtherFamilyData, m.MedicalBoard,
		m.CreatedBy, date(m.CreationDate),
	}
}

func insertSQL(ph placeholder) string {
	n := len(strings.Split(insertCols, ","))
	vals := make([]string, n)
	for i := range vals {
		vals[i] = ph(i + 1)
	}
	return `INSERT INTO t_medical_record (` + insertCols + `) VALUES (` + strings.Join(vals, ", ") + `)`
}

var updateCols = []string{
	"diagnosis", "start_date", "end_date", "status_id", "medical_record_type_id", "observations",
	"audiometry", "position_change", "execute_micros", "execute_extra", "voice_evaluation",
	"disability", "area_change", "disability_percentage",
	"mother_data", "father_data", "other_family_data", "medical_board",
	"modified_by", "modification_date", "deletion_reason",
}

// updateArgs ends with the row id, bound to the WHERE clause.
func updateArgs(m *MedicalRecord, date func(*time.Time) interface{}) []interface{} {
	return []interface{}{
		m.Diagnosis, date(m.StartDate), date(m.EndDate), m.StatusID, m.MedicalRecordTypeID, m.Observations,
		m.Audiometry, m.PositionChange, m.ExecuteMicros, m.ExecuteExtra, m.VoiceEvaluation,
		m.Disability, m.AreaChange, m.DisabilityPercentage,
		m.MotherData, m.FatherData, m.OtherFamilyData, m.MedicalBoard,
		m.ModifiedBy, date(m.ModificationDate), m.DeletionReason,
		m.ID,
	}
}

func updateSQL(ph placeholder) string {
	sets := make([]string, len(updateCols))
	for i, col := range updateCols {
		sets[i] = col + " = " + ph(i+1)
	}
	return `UPDATE t_medical_record SET ` + strings.Join(sets, ", ") +
		` WHERE medical_record_id = ` + ph(len(updateCols)+1)
}

func softDeleteSQL(ph placeholder) string {
	return fmt.Sprintf(`UPDATE t_medical_record
		SET deleted_by = %s, deletion_reason = %s, deletion_date = %s, status_id = %d
		WHERE medical_record_id = %s`, ph(1), ph(2), ph(3), StatusInactive, ph(4))
}
