package medicalrecord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single failed rule, scoped to a request property.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors is the result of a validation pass. Empty means valid.
type FieldErrors []FieldError

// Messages joins the failure messages the way they are reported in the
// envelope exception.
func (fe FieldErrors) Messages() string {
	msgs := make([]string, 0, len(fe))
	for _, e := range fe {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, ", ")
}

func (fe *FieldErrors) add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

// Lookup is the store access the validator needs for existence and
// cross-record checks.
type Lookup interface {
	StatusExists(ctx context.Context, id int) (bool, error)
	MedicalRecordTypeExists(ctx context.Context, id int) (bool, error)
	GetByID(ctx context.Context, id int) (*MedicalRecord, error)
}

// Validator evaluates create, update and delete requests. Struct tags carry
// the length and YES/NO rules; everything conditional or store-dependent
// is checked here.
type Validator struct {
	lookup Lookup
	fields *validator.Validate
	now    func() time.Time
}

// NewValidator returns a Validator backed by lookup. now is the clock used
// for the start-date check; nil means time.Now.
func NewValidator(lookup Lookup, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{lookup: lookup, fields: validator.New(), now: now}
}

// property labels used in messages, keyed by Go field name.
var fieldLabels = map[string]string{
	"Diagnosis":       "Diagnosis",
	"Observations":    "Observations",
	"MotherData":      "Mother Data",
	"FatherData":      "Father Data",
	"OtherFamilyData": "Other Family Data",
	"MedicalBoard":    "Medical Board",
	"Audiometry":      "Audiometry",
	"ExecuteMicros":   "Execute Micros",
	"ExecuteExtra":    "Execute Extra",
	"VoiceEvaluation": "Voice Evaluation",
	"AreaChange":      "Area Change",
	"Disability":      "Disability",
	"PositionChange":  "Position Change",
	"CreatedBy":       "Created By",
	"ModifiedBy":      "Modified By",
	"DeletedBy":       "Deleted By",
	"DeletionReason":  "Deletion Reason",
}

// propertyName renders a Go field name as the request property name used
// in FieldError.Field (StatusID -> StatusId).
func propertyName(goName string) string {
	if strings.HasSuffix(goName, "ID") {
		return strings.TrimSuffix(goName, "ID") + "Id"
	}
	return goName
}

// structRules runs the tag rules of req and translates the failures.
func (v *Validator) structRules(req interface{}) (FieldErrors, error) {
	var out FieldErrors
	err := v.fields.Struct(req)
	if err == nil {
		return out, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate %T: %w", req, err)
	}
	for _, fe := range verrs {
		label, ok := fieldLabels[fe.StructField()]
		if !ok {
			label = fe.StructField()
		}
		field := propertyName(fe.StructField())
		switch fe.Tag() {
		case "max":
			out.add(field, fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param()))
		case "oneof":
			out.add(field, fmt.Sprintf("%s must be 'YES' or 'NO'", label))
		default:
			out.add(field, fmt.Sprintf("%s is invalid", label))
		}
	}
	return out, nil
}

// sharedRules are the conditional rules common to create and update.
func sharedRules(p *Payload, out *FieldErrors) {
	if strPtrVal(p.PositionChange) == FlagYes && isBlank(p.Observations) {
		out.add("Observations", "Observations are required when Position Change is YES")
	}
	if strPtrVal(p.Disability) == FlagYes {
		pct := p.DisabilityPercentage
		if pct == nil || *pct < 0 || *pct > 100 {
			out.add("DisabilityPercentage", "Disability Percentage must be between 0 and 100 when Disability is 'YES'")
		}
	}
}

// ValidateCreate checks a create request. A non-nil error means a lookup
// against the store failed, not that the request is invalid.
func (v *Validator) ValidateCreate(ctx context.Context, req *CreateRequest) (FieldErrors, error) {
	out, err := v.structRules(req)
	if err != nil {
		return nil, err
	}
	sharedRules(&req.Payload, &out)

	if isBlank(req.Diagnosis) {
		out.add("Diagnosis", "Diagnosis is required")
	}

	if req.StartDate == nil {
		out.add("StartDate", "Start Date is required")
	} else if req.StartDate.After(NewDate(v.now())) {
		out.add("StartDate", "Start Date cannot be in the future")
	}

	if req.StatusID == nil {
		out.add("StatusId", "Status ID is required")
	} else {
		if *req.StatusID == StatusInactive {
			out.add("StatusId", "Cannot create record with Inactive status")
		}
		ok, err := v.lookup.StatusExists(ctx, *req.StatusID)
		if err != nil {
			return nil, fmt.Errorf("check status %d: %w", *req.StatusID, err)
		}
		if !ok {
			out.add("StatusId", "Invalid Status ID")
		}
	}

	if req.MedicalRecordTypeID == nil {
		out.add("MedicalRecordTypeId", "Medical Record Type ID is required")
	} else {
		ok, err := v.lookup.MedicalRecordTypeExists(ctx, *req.MedicalRecordTypeID)
		if err != nil {
			return nil, fmt.Errorf("check medical record type %d: %w", *req.MedicalRecordTypeID, err)
		}
		if !ok {
			out.add("MedicalRecordTypeId", "Invalid Medical Record Type ID")
		}
	}

	if req.FileID == nil {
		out.add("FileId", "File ID is required")
	}

	if strings.TrimSpace(req.CreatedBy) == "" {
		out.add("CreatedBy", "Created By is required")
	}

	return out, nil
}

// ValidateUpdate checks an update request, including the rules that depend
// on the stored state of the target record.
func (v *Validator) ValidateUpdate(ctx context.Context, req *UpdateRequest) (FieldErrors, error) {
	out, err := v.structRules(req)
	if err != nil {
		return nil, err
	}
	sharedRules(&req.Payload, &out)

	if req.ID == 0 {
		out.add("Id", "Id is required")
	}

	if req.StartDate != nil && req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
		out.add("EndDate", "End Date must be after Start Date")
	}

	closing := req.StatusID != nil && *req.StatusID == StatusInactive
	if closing {
		if isBlank(req.DeletionReason) {
			out.add("DeletionReason", "Deletion Reason is required for Inactive status")
		}
		if req.EndDate == nil {
			out.add("EndDate", "End Date is required for Inactive status")
		}
		if isBlank(req.ModifiedBy) {
			out.add("ModifiedBy", "Modified By is required for status change")
		}
	}

	existing, err := v.lookup.GetByID(ctx, req.ID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load medical record %d: %w", req.ID, err)
	case existing.IsInactive():
		out.add("StatusId", "Cannot modify an Inactive record")
	}

	if req.EndDate != nil && !closing {
		out.add("StatusId", "Record with End Date must be set to Inactive status")
	}

	return out, nil
}

// ValidateDelete checks a soft-delete request.
func (v *Validator) ValidateDelete(req *DeleteRequest) (FieldErrors, error) {
	out, err := v.structRules(req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.DeletionReason) == "" {
		out.add("DeletionReason", "Deletion Reason is required")
	}
	if strings.TrimSpace(req.DeletedBy) == "" {
		out.add("DeletedBy", "Deleted By is required")
	}
	return out, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
