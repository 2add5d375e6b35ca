package medicalrecord

// Payload is the field set shared by the create, update and view shapes.
// Nil means absent.
type Payload struct {
	Diagnosis             *string `json:"diagnosis" validate:"omitempty,max=100"`
	StartDate             *Date   `json:"startDate"`
	EndDate               *Date   `json:"endDate"`
	StatusID              *int    `json:"statusId"`
	StatusName            *string `json:"statusName"`
	MedicalRecordTypeID   *int    `json:"medicalRecordTypeId"`
	MedicalRecordTypeName *string `json:"medicalRecordTypeName"`
	Observations          *string `json:"observations" validate:"omitempty,max=2000"`
	MotherData            *string `json:"motherData" validate:"omitempty,max=2000"`
	FatherData            *string `json:"fatherData" validate:"omitempty,max=2000"`
	OtherFamilyData       *string `json:"otherFamilyData" validate:"omitempty,max=2000"`
	MedicalBoard          *string `json:"medicalBoard" validate:"omitempty,max=200"`
	Audiometry            *string `json:"audiometry" validate:"omitempty,oneof=YES NO"`
	ExecuteMicros         *string `json:"executeMicros" validate:"omitempty,oneof=YES NO"`
	ExecuteExtra          *string `json:"executeExtra" validate:"omitempty,oneof=YES NO"`
	VoiceEvaluation       *string `json:"voiceEvaluation" validate:"omitempty,oneof=YES NO"`
	AreaChange            *string `json:"areaChange" validate:"omitempty,oneof=YES NO"`
	Disability            *string `json:"disability" validate:"omitempty,oneof=YES NO"`
	DisabilityPercentage  *int    `json:"disabilityPercentage"`
	PositionChange        *string `json:"positionChange" validate:"omitempty,oneof=YES NO"`
}

// CreateRequest is the body of a create call. CreationDate is accepted for
// compatibility and ignored; the server stamps it.
type CreateRequest struct {
	Payload
	CreatedBy    string `json:"createdBy" validate:"max=2000"`
	FileID       *int   `json:"fileId"`
	CreationDate *Date  `json:"creationDate"`
}

// UpdateRequest is the body of an update call. ModificationDate is
// accepted and ignored.
type UpdateRequest struct {
	Payload
	ID               int     `json:"id"`
	ModifiedBy       *string `json:"modifiedBy" validate:"omitempty,max=2000"`
	DeletionReason   *string `json:"deletionReason" validate:"omitempty,max=2000"`
	ModificationDate *Date   `json:"modificationDate"`
}

// DeleteRequest is the body of a soft-delete call. The row is addressed by
// ID; MedicalRecordID is carried for clients that send both.
type DeleteRequest struct {
	ID              int    `json:"id"`
	MedicalRecordID int    `json:"medicalRecordId"`
	DeletedBy       string `json:"deletedBy" validate:"max=2000"`
	DeletionReason  string `json:"deletionReason" validate:"max=2000"`
}

// View is the outward shape of a stored record.
type View struct {
	Payload
	MedicalRecordID  int     `json:"medicalRecordId"`
	CreatedBy        *string `json:"createdBy"`
	ModifiedBy       *string `json:"modifiedBy"`
	DeletedBy        *string `json:"deletedBy"`
	CreationDate     *Date   `json:"creationDate"`
	ModificationDate *Date   `json:"modificationDate"`
	DeletionDate     *Date   `json:"deletionDate"`
}

// NewView shapes a stored record for output.
func NewView(m *MedicalRecord) *View {
	return &View{
		Payload: Payload{
			Diagnosis:             m.Diagnosis,
			StartDate:             timeToDate(m.StartDate),
			EndDate:               timeToDate(m.EndDate),
			StatusID:              m.StatusID,
			StatusName:            m.StatusName,
			MedicalRecordTypeID:   m.MedicalRecordTypeID,
			MedicalRecordTypeName: m.MedicalRecordTypeName,
			Observations:          m.Observations,
			MotherData:            m.MotherData,
			FatherData:            m.FatherData,
			OtherFamilyData:       m.OtherFamilyData,
			MedicalBoard:          m.MedicalBoard,
			Audiometry:            m.Audiometry,
			ExecuteMicros:         m.ExecuteMicros,
			ExecuteExtra:          m.ExecuteExtra,
			VoiceEvaluation:       m.VoiceEvaluation,
			AreaChange:            m.AreaChange,
			Disability:            m.Disability,
			DisabilityPercentage:  m.DisabilityPercentage,
			PositionChange:        m.PositionChange,
		},
		MedicalRecordID:  m.ID,
		CreatedBy:        m.CreatedBy,
		ModifiedBy:       m.ModifiedBy,
		DeletedBy:        m.DeletedBy,
		CreationDate:     timeToDate(m.CreationDate),
		ModificationDate: timeToDate(m.ModificationDate),
		DeletionDate:     timeToDate(m.DeletionDate),
	}
}

// NewViews shapes a page of records.
func NewViews(records []*MedicalRecord) []*View {
	views := make([]*View, 0, len(records))
	for _, m := range records {
		views = append(views, NewView(m))
	}
	return views
}

// newRecord builds an entity from a create payload. Audit fields and the
// status are stamped by the service.
func (p *Payload) newRecord() *MedicalRecord {
	m := &MedicalRecord{}
	p.mergeInto(m)
	return m
}

// mergeInto copies every non-nil field onto m, leaving absent fields
// untouched. Status and type names are output-only and never copied.
func (p *Payload) mergeInto(m *MedicalRecord) {
	if p.Diagnosis != nil {
		m.Diagnosis = p.Diagnosis
	}
	if p.StartDate != nil {
		m.StartDate = dateToTime(p.StartDate)
	}
	if p.EndDate != nil {
		m.EndDate = dateToTime(p.EndDate)
	}
	if p.StatusID != nil {
		m.StatusID = p.StatusID
	}
	if p.MedicalRecordTypeID != nil {
		m.MedicalRecordTypeID = p.MedicalRecordTypeID
	}
	if p.Observations != nil {
		m.Observations = p.Observations
	}
	if p.MotherData != nil {
		m.MotherData = p.MotherData
	}
	if p.FatherData != nil {
		m.FatherData = p.FatherData
	}
	if p.OtherFamilyData != nil {
		m.OtherFamilyData = p.OtherFamilyData
	}
	if p.MedicalBoard != nil {
		m.MedicalBoard = p.MedicalBoard
	}
	if p.Audiometry != nil {
		m.Audiometry = p.Audiometry
	}
	if p.ExecuteMicros != nil {
		m.ExecuteMicros = p.ExecuteMicros
	}
	if p.ExecuteExtra != nil {
		m.ExecuteExtra = p.ExecuteExtra
	}
	if p.VoiceEvaluation != nil {
		m.VoiceEvaluation = p.VoiceEvaluation
	}
	if p.AreaChange != nil {
		m.AreaChange = p.AreaChange
	}
	if p.Disability != nil {
		m.Disability = p.Disability
	}
	if p.DisabilityPercentage != nil {
		m.DisabilityPercentage = p.DisabilityPercentage
	}
	if p.PositionChange != nil {
		m.PositionChange = p.PositionChange
	}
}
