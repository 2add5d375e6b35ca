package medicalrecord

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestFilter_Matches(t *testing.T) {
	rec := &MedicalRecord{
		StatusID:            intPtr(StatusActive),
		MedicalRecordTypeID: intPtr(2),
		StartDate:           day(2024, 3, 1),
		EndDate:             day(2024, 4, 1),
	}

	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty filter", Filter{}, true},
		{"status match", Filter{StatusID: intPtr(StatusActive)}, true},
		{"status mismatch", Filter{StatusID: intPtr(StatusInactive)}, false},
		{"type match", Filter{MedicalRecordTypeID: intPtr(2)}, true},
		{"type mismatch", Filter{MedicalRecordTypeID: intPtr(3)}, false},
		{"start bound inclusive", Filter{StartDate: day(2024, 3, 1)}, true},
		{"start bound after", Filter{StartDate: day(2024, 3, 2)}, false},
		{"end bound inclusive", Filter{EndDate: day(2024, 4, 1)}, true},
		{"end bound before", Filter{EndDate: day(2024, 3, 31)}, false},
		{"all criteria", Filter{
			StatusID: intPtr(StatusActive), MedicalRecordTypeID: intPtr(2),
			StartDate: day(2024, 1, 1), EndDate: day(2024, 12, 31),
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Matches(rec); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFilter_Matches_NilDates(t *testing.T) {
	rec := &MedicalRecord{StatusID: intPtr(StatusActive)}
	if (Filter{StartDate: day(2020, 1, 1)}).Matches(rec) {
		t.Error("record without start date must not satisfy a start bound")
	}
	if (Filter{EndDate: day(2030, 1, 1)}).Matches(rec) {
		t.Error("record without end date must not satisfy an end bound")
	}
}

func TestMedicalRecord_IsInactive(t *testing.T) {
	if (&MedicalRecord{}).IsInactive() {
		t.Error("record without status is not inactive")
	}
	if (&MedicalRecord{StatusID: intPtr(StatusActive)}).IsInactive() {
		t.Error("active record reported inactive")
	}
	if !(&MedicalRecord{StatusID: intPtr(StatusInactive)}).IsInactive() {
		t.Error("inactive record not reported")
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		D  *Date `json:"d"`
		N  *Date `json:"n"`
		TS *Date `json:"ts"`
	}
	err := json.Unmarshal([]byte(`{"d":"2024-02-29","n":null,"ts":"2024-02-29T23:10:00Z"}`), &v)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.D == nil || v.D.String() != "2024-02-29" {
		t.Errorf("expected date, got %v", v.D)
	}
	if v.N != nil {
		t.Errorf("expected nil for null, got %v", v.N)
	}
	if v.TS == nil || v.TS.String() != "2024-02-29" {
		t.Errorf("expected timestamp truncated to date, got %v", v.TS)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"d":"2024-02-29"`) || !strings.Contains(string(out), `"n":null`) {
		t.Errorf("unexpected json %s", out)
	}
}

func TestDate_Invalid(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"15/06/2024"`), &d); err == nil {
		t.Error("expected error for non ISO date")
	}
	if err := json.Unmarshal([]byte(`20240615`), &d); err == nil {
		t.Error("expected error for numeric date")
	}
	if err := d.UnmarshalParam("not-a-date"); err == nil {
		t.Error("expected error from UnmarshalParam")
	}
}

func TestNewDate_Truncates(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	d := NewDate(time.Date(2024, 6, 15, 22, 0, 0, 0, loc))
	if d.String() != "2024-06-15" {
		t.Errorf("expected calendar date in source zone, got %s", d)
	}
	if !d.Time().Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected UTC midnight, got %v", d.Time())
	}
}

func TestView_JSONKeys(t *testing.T) {
	rec := &MedicalRecord{
		ID:                   7,
		Diagnosis:            strPtr("Asthma"),
		StartDate:            day(2024, 1, 2),
		StatusID:             intPtr(StatusActive),
		StatusName:           strPtr("Active"),
		DisabilityPercentage: intPtr(20),
		CreatedBy:            strPtr("hr"),
	}
	out, err := json.Marshal(NewView(rec))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{
		`"medicalRecordId":7`, `"diagnosis":"Asthma"`, `"startDate":"2024-01-02"`,
		`"statusId":1`, `"statusName":"Active"`, `"disabilityPercentage":20`,
		`"createdBy":"hr"`, `"endDate":null`,
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestPayload_MergeInto(t *testing.T) {
	m := &MedicalRecord{
		Diagnosis:  strPtr("Old"),
		Audiometry: strPtr(FlagNo),
		StatusName: strPtr("Active"),
	}
	p := Payload{Audiometry: strPtr(FlagYes), StatusName: strPtr("Ignored")}
	p.mergeInto(m)

	if strPtrVal(m.Diagnosis) != "Old" {
		t.Errorf("absent field overwritten: %v", m.Diagnosis)
	}
	if strPtrVal(m.Audiometry) != FlagYes {
		t.Errorf("present field not merged: %v", m.Audiometry)
	}
	if strPtrVal(m.StatusName) != "Active" {
		t.Errorf("output-only field merged: %v", m.StatusName)
	}
}
