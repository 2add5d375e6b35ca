package medicalrecord

import (
	"strings"
	"testing"
	"time"
)

func TestBuildFilterQuery(t *testing.T) {
	identity := func(t time.Time) interface{} { return t }

	q := buildFilterQuery(Filter{}, dollarPlaceholder, identity)
	if q.where != "" || len(q.args) != 0 {
		t.Errorf("expected no clauses, got %q %v", q.where, q.args)
	}

	q = buildFilterQuery(Filter{
		StatusID:            intPtr(1),
		EndDate:             day(2024, 1, 31),
		MedicalRecordTypeID: intPtr(3),
	}, dollarPlaceholder, identity)
	want := " WHERE m.status_id = $1 AND m.end_date <= $2 AND m.medical_record_type_id = $3"
	if q.where != want {
		t.Errorf("expected %q, got %q", want, q.where)
	}
	if len(q.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(q.args))
	}

	sql, args := q.dataSQL(dollarPlaceholder, 10, 20)
	if !strings.HasSuffix(sql, "ORDER BY m.medical_record_id LIMIT $4 OFFSET $5") {
		t.Errorf("unexpected data sql %q", sql)
	}
	if args[3] != 10 || args[4] != 20 {
		t.Errorf("expected limit/offset args, got %v", args[3:])
	}
	if len(q.args) != 3 {
		t.Error("dataSQL must not mutate the filter args")
	}
}

func TestBuildFilterQuery_Question(t *testing.T) {
	q := buildFilterQuery(Filter{StartDate: day(2024, 2, 1)}, questionPlaceholder,
		func(t time.Time) interface{} { return t.Format(DateLayout) })
	if q.where != " WHERE m.start_date >= ?" {
		t.Errorf("unexpected where %q", q.where)
	}
	if q.args[0] != "2024-02-01" {
		t.Errorf("expected text date arg, got %v", q.args[0])
	}
}

func TestInsertAndUpdateSQL_Aligned(t *testing.T) {
	m := &MedicalRecord{}
	insertPlaceholders := strings.Count(insertSQL(dollarPlaceholder), "$")
	if n := len(insertArgs(m, pgDateArg)); n != insertPlaceholders {
		t.Errorf("insert: %d args for %d placeholders", n, insertPlaceholders)
	}
	updatePlaceholders := strings.Count(updateSQL(dollarPlaceholder), "$")
	if n := len(updateArgs(m, pgDateArg)); n != updatePlaceholders {
		t.Errorf("update: %d args for %d placeholders", n, updatePlaceholders)
	}
	if !strings.HasSuffix(updateSQL(questionPlaceholder), "WHERE medical_record_id = ?") {
		t.Errorf("unexpected update sql %q", updateSQL(questionPlaceholder))
	}
}

func TestSoftDeleteSQL(t *testing.T) {
	sql := softDeleteSQL(dollarPlaceholder)
	if !strings.Contains(sql, "status_id = 2") {
		t.Errorf("expected forced Inactive status in %q", sql)
	}
	if !strings.Contains(sql, "WHERE medical_record_id = $4") {
		t.Errorf("expected id bound last in %q", sql)
	}
}
