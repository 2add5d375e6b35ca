package medicalrecord

import (
	"errors"
	"time"
)

// Well-known status ids. Other rows of the status table carry no logic.
const (
	StatusActive   = 1
	StatusInactive = 2
)

// Flag values accepted by the YES/NO fields.
const (
	FlagYes = "YES"
	FlagNo  = "NO"
)

// ErrNotFound is returned by repositories when the requested row does not exist.
var ErrNotFound = errors.New("medical record not found")

// MedicalRecord maps to the t_medical_record table. Dates are calendar
// dates held at UTC midnight.
type MedicalRecord struct {
	ID                   int        `db:"medical_record_id" json:"medical_record_id"`
	Diagnosis            *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	StartDate            *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate              *time.Time `db:"end_date" json:"end_date,omitempty"`
	StatusID             *int       `db:"status_id" json:"status_id,omitempty"`
	MedicalRecordTypeID  *int       `db:"medical_record_type_id" json:"medical_record_type_id,omitempty"`
	Observations         *string    `db:"observations" json:"observations,omitempty"`
	Audiometry           *string    `db:"audiometry" json:"audiometry,omitempty"`
	PositionChange       *string    `db:"position_change" json:"position_change,omitempty"`
	ExecuteMicros        *string    `db:"execute_micros" json:"execute_micros,omitempty"`
	ExecuteExtra         *string    `db:"execute_extra" json:"execute_extra,omitempty"`
	VoiceEvaluation      *string    `db:"voice_evaluation" json:"voice_evaluation,omitempty"`
	Disability           *string    `db:"disability" json:"disability,omitempty"`
	AreaChange           *string    `db:"area_change" json:"area_change,omitempty"`
	DisabilityPercentage *int       `db:"disability_percentage" json:"disability_percentage,omitempty"`
	MotherData           *string    `db:"mother_data" json:"mother_data,omitempty"`
	FatherData           *string    `db:"father_data" json:"father_data,omitempty"`
	OtherFamilyData      *string    `db:"other_family_data" json:"other_family_data,omitempty"`
	MedicalBoard         *string    `db:"medical_board" json:"medical_board,omitempty"`
	CreatedBy            *string    `db:"created_by" json:"created_by,omitempty"`
	CreationDate         *time.Time `db:"creation_date" json:"creation_date,omitempty"`
	ModifiedBy           *string    `db:"modified_by" json:"modified_by,omitempty"`
	ModificationDate     *time.Time `db:"modification_date" json:"modification_date,omitempty"`
	DeletedBy            *string    `db:"deleted_by" json:"deleted_by,omitempty"`
	DeletionDate         *time.Time `db:"deletion_date" json:"deletion_date,omitempty"`
	DeletionReason       *string    `db:"deletion_reason" json:"deletion_reason,omitempty"`

	// Populated from the status and medical_record_type joins on read.
	StatusName            *string `db:"status_name" json:"status_name,omitempty"`
	MedicalRecordTypeName *string `db:"medical_record_type_name" json:"medical_record_type_name,omitempty"`
}

// IsInactive reports whether the record has been closed.
func (m *MedicalRecord) IsInactive() bool {
	return m.StatusID != nil && *m.StatusID == StatusInactive
}

// Status maps to the status reference table.
type Status struct {
	ID          int     `db:"status_id" json:"statusId"`
	Name        *string `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

// MedicalRecordType maps to the medical_record_type reference table.
type MedicalRecordType struct {
	ID          int     `db:"medical_record_type_id" json:"medicalRecordTypeId"`
	Name        *string `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

// Deletion carries the soft-delete stamps applied by Repository.SoftDelete.
type Deletion struct {
	ID        int
	DeletedBy string
	Reason    string
	At        time.Time
}

// Filter selects a page of records. Nil criteria are ignored.
type Filter struct {
	StatusID            *int
	StartDate           *time.Time
	EndDate             *time.Time
	MedicalRecordTypeID *int
	Limit               int
	Offset              int
}

// Matches applies the filter predicate to a single record. A record with
// no start or end date never satisfies a bound on that date.
func (f Filter) Matches(m *MedicalRecord) bool {
	if f.StatusID != nil && (m.StatusID == nil || *m.StatusID != *f.StatusID) {
		return false
	}
	if f.StartDate != nil && (m.StartDate == nil || m.StartDate.Before(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && (m.EndDate == nil || m.EndDate.After(*f.EndDate)) {
		return false
	}
	if f.MedicalRecordTypeID != nil && (m.MedicalRecordTypeID == nil || *m.MedicalRecordTypeID != *f.MedicalRecordTypeID) {
		return false
	}
	return true
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func strPtrVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
