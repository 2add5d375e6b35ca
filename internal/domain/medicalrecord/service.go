package medicalrecord

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hrcore/medrecord/pkg/pagination"
	"github.com/hrcore/medrecord/pkg/response"
)

// ListParams are the inputs of a filtered list. Nil criteria are ignored.
type ListParams struct {
	pagination.Params
	StatusID            *int
	StartDate           *Date
	EndDate             *Date
	MedicalRecordTypeID *int
}

func (p ListParams) filter() Filter {
	return Filter{
		StatusID:            p.StatusID,
		StartDate:           dateToTime(p.StartDate),
		EndDate:             dateToTime(p.EndDate),
		MedicalRecordTypeID: p.MedicalRecordTypeID,
		Limit:               p.Limit(),
		Offset:              p.Offset(),
	}
}

// Service runs the record lifecycle. Every method folds its outcome into
// an envelope; store failures become 500s and are logged.
type Service struct {
	repo      Repository
	validator *Validator
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for store failures.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock sets the clock used for date stamps and the start-date check.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = NewValidator(repo, s.now)
	return s
}

func (s *Service) today() time.Time {
	return NewDate(s.now().UTC()).Time()
}

func (s *Service) storeFailure(op string, err error) {
	s.log.Error().Err(err).Str("operation", op).Msg("medical record store failure")
}

// failStore builds the envelope for a store error. A store call cut short by
// the request deadline answers 504; anything else is a 500 with message.
func failStore[T any](s *Service, op, message string, err error) response.Envelope[T] {
	if errors.Is(err, context.DeadlineExceeded) {
		s.log.Warn().Err(err).Str("operation", op).Msg("medical record store call timed out")
		return response.Fail[T](http.StatusGatewayTimeout, "Request timed out.").WithException(err.Error())
	}
	s.storeFailure(op, err)
	return response.Fail[T](http.StatusInternalServerError, message).WithException(err.Error())
}

// ListFiltered returns one page of records matching p.
func (s *Service) ListFiltered(ctx context.Context, p ListParams) response.Envelope[[]*View] {
	if !p.Valid() {
		return response.Fail[[]*View](http.StatusBadRequest, "Invalid page or page size parameters.")
	}

	records, total, err := s.repo.List(ctx, p.filter())
	if err != nil {
		return failStore[[]*View](s, "list", "Error retrieving medical records.", err)
	}
	if len(records) == 0 {
		return response.Fail[[]*View](http.StatusNotFound, "No medical records found.").WithTotal(0)
	}
	return response.Page("Medical records retrieved successfully.", NewViews(records), total)
}

// GetByID returns a single record.
func (s *Service) GetByID(ctx context.Context, id int) response.Envelope[*View] {
	if id <= 0 {
		return response.Fail[*View](http.StatusBadRequest, "Invalid medical record ID.")
	}

	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return response.Fail[*View](http.StatusNotFound, "Medical record not found.")
	}
	if err != nil {
		return failStore[*View](s, "get", "Error retrieving medical record.", err)
	}
	return response.OK("Medical record retrieved successfully.", NewView(m))
}

// Create validates and inserts a new Active record.
func (s *Service) Create(ctx context.Context, req *CreateRequest) response.Envelope[*View] {
	failures, err := s.validator.ValidateCreate(ctx, req)
	if err != nil {
		return failStore[*View](s, "create", "Error creating medical record.", err)
	}
	if len(failures) > 0 {
		return response.Fail[*View](http.StatusBadRequest, "Validation failed").
			WithException(failures.Messages())
	}

	m := req.newRecord()
	today := s.today()
	m.StatusID = intPtr(StatusActive)
	m.CreationDate = &today
	m.CreatedBy = strPtr(req.CreatedBy)

	if err := s.repo.Create(ctx, m); err != nil {
		return failStore[*View](s, "create", "Error creating medical record.", err)
	}
	return response.OK("Medical record created successfully", s.reload(ctx, m))
}

// Update applies the non-nil fields of req to the stored record.
func (s *Service) Update(ctx context.Context, req *UpdateRequest) response.Envelope[*View] {
	failures, err := s.validator.ValidateUpdate(ctx, req)
	if err != nil {
		return failStore[*View](s, "update", "Error updating medical record.", err)
	}
	if len(failures) > 0 {
		return response.Fail[*View](http.StatusBadRequest, "Validation failed").
			WithException(failures.Messages())
	}

	m, err := s.repo.GetByID(ctx, req.ID)
	if errors.Is(err, ErrNotFound) {
		return response.Fail[*View](http.StatusNotFound, "Medical record not found")
	}
	if err != nil {
		return failStore[*View](s, "update", "Error updating medical record.", err)
	}

	req.mergeInto(m)
	if req.DeletionReason != nil {
		m.DeletionReason = req.DeletionReason
	}
	today := s.today()
	m.ModificationDate = &today
	m.ModifiedBy = req.ModifiedBy

	err = s.repo.Update(ctx, m)
	if errors.Is(err, ErrNotFound) {
		return response.Fail[*View](http.StatusNotFound, "Medical record not found")
	}
	if err != nil {
		return failStore[*View](s, "update", "Error updating medical record.", err)
	}
	return response.OK("Medical record updated successfully.", s.reload(ctx, m))
}

// Delete soft-deletes the record addressed by req.ID.
func (s *Service) Delete(ctx context.Context, req *DeleteRequest) response.Envelope[bool] {
	failures, err := s.validator.ValidateDelete(req)
	if err != nil {
		return failStore[bool](s, "delete", "Error deleting medical record.", err).WithData(false)
	}
	if len(failures) > 0 {
		return response.Fail[bool](http.StatusBadRequest, "Validation failed").
			WithData(false).WithException(failures.Messages())
	}

	err = s.repo.SoftDelete(ctx, Deletion{
		ID:        req.ID,
		DeletedBy: req.DeletedBy,
		Reason:    req.DeletionReason,
		At:        s.today(),
	})
	if errors.Is(err, ErrNotFound) {
		return response.Fail[bool](http.StatusNotFound, "Failed to delete medical record or record not found").
			WithData(false)
	}
	if err != nil {
		return failStore[bool](s, "delete", "Error deleting medical record.", err).WithData(false)
	}
	return response.OK("Medical record deleted successfully", true)
}

// ListStatuses returns the status reference table.
func (s *Service) ListStatuses(ctx context.Context) response.Envelope[[]*Status] {
	statuses, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return failStore[[]*Status](s, "list statuses", "Error retrieving statuses.", err)
	}
	if len(statuses) == 0 {
		return response.Fail[[]*Status](http.StatusNotFound, "No statuses found.").WithTotal(0)
	}
	return response.Page("Statuses retrieved successfully.", statuses, len(statuses))
}

// ListMedicalRecordTypes returns the record type reference table.
func (s *Service) ListMedicalRecordTypes(ctx context.Context) response.Envelope[[]*MedicalRecordType] {
	types, err := s.repo.ListMedicalRecordTypes(ctx)
	if err != nil {
		return failStore[[]*MedicalRecordType](s, "list medical record types", "Error retrieving medical record types.", err)
	}
	if len(types) == 0 {
		return response.Fail[[]*MedicalRecordType](http.StatusNotFound, "No medical record types found.").WithTotal(0)
	}
	return response.Page("Medical record types retrieved successfully.", types, len(types))
}

// reload re-reads m so the joined status and type names are populated. If
// the read fails the written entity is returned as is.
func (s *Service) reload(ctx context.Context, m *MedicalRecord) *View {
	stored, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		s.log.Warn().Err(err).Int("medical_record_id", m.ID).Msg("reload after write failed")
		return NewView(m)
	}
	return NewView(stored)
}
