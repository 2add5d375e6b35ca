package medicalrecord

import "context"

// Repository is the record store. GetByID, Update and SoftDelete return
// ErrNotFound when the row does not exist.
type Repository interface {
	Lookup

	List(ctx context.Context, f Filter) ([]*MedicalRecord, int, error)
	Create(ctx context.Context, m *MedicalRecord) error
	Update(ctx context.Context, m *MedicalRecord) error
	SoftDelete(ctx context.Context, d Deletion) error

	// Reference data
	ListStatuses(ctx context.Context) ([]*Status, error)
	ListMedicalRecordTypes(ctx context.Context) ([]*MedicalRecordType, error)
}
