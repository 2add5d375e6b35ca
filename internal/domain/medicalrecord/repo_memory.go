package medicalrecord

import (
	"context"
	"sort"
	"sync"
)

var _ Repository = (*MemoryRepo)(nil)

// MemoryRepo is an in-process record store for development and tests.
// Records are copied on the way in and out so callers never share state
// with the store.
type MemoryRepo struct {
	mu       sync.RWMutex
	nextID   int
	records  map[int]*MedicalRecord
	statuses map[int]*Status
	types    map[int]*MedicalRecordType
}

// NewMemoryRepo returns a store seeded with the Active and Inactive
// statuses and the default record types.
func NewMemoryRepo() *MemoryRepo {
	r := &MemoryRepo{
		nextID:   1,
		records:  make(map[int]*MedicalRecord),
		statuses: make(map[int]*Status),
		types:    make(map[int]*MedicalRecordType),
	}
	for _, s := range DefaultStatuses() {
		r.statuses[s.ID] = s
	}
	for _, t := range DefaultMedicalRecordTypes() {
		r.types[t.ID] = t
	}
	return r
}

// DefaultStatuses is the status reference data every store starts with.
func DefaultStatuses() []*Status {
	return []*Status{
		{ID: StatusActive, Name: strPtr("Active"), Description: strPtr("Record is open")},
		{ID: StatusInactive, Name: strPtr("Inactive"), Description: strPtr("Record is closed")},
	}
}

// DefaultMedicalRecordTypes is the record type reference data every store
// starts with.
func DefaultMedicalRecordTypes() []*MedicalRecordType {
	return []*MedicalRecordType{
		{ID: 1, Name: strPtr("Pre-employment"), Description: strPtr("Examination before hiring")},
		{ID: 2, Name: strPtr("Periodic"), Description: strPtr("Recurring occupational examination")},
		{ID: 3, Name: strPtr("Exit"), Description: strPtr("Examination at the end of employment")},
	}
}

// PutStatus adds or replaces a status row.
func (r *MemoryRepo) PutStatus(s *Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.statuses[s.ID] = &cp
}

// PutMedicalRecordType adds or replaces a record type row.
func (r *MemoryRepo) PutMedicalRecordType(t *MedicalRecordType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.types[t.ID] = &cp
}

// withNames returns a copy of m with the joined names filled in. Caller
// holds the lock.
func (r *MemoryRepo) withNames(m *MedicalRecord) *MedicalRecord {
	cp := *m
	cp.StatusName, cp.MedicalRecordTypeName = nil, nil
	if m.StatusID != nil {
		if s, ok := r.statuses[*m.StatusID]; ok {
			cp.StatusName = s.Name
		}
	}
	if m.MedicalRecordTypeID != nil {
		if t, ok := r.types[*m.MedicalRecordTypeID]; ok {
			cp.MedicalRecordTypeName = t.Name
		}
	}
	return &cp
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]*MedicalRecord, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.records))
	for id, m := range r.records {
		if f.Matches(m) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	total := len(ids)
	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && f.Limit < total-start {
		end = start + f.Limit
	}

	out := make([]*MedicalRecord, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, r.withNames(r.records[id]))
	}
	return out, total, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id int) (*MedicalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.withNames(m), nil
}

func (r *MemoryRepo) Create(ctx context.Context, m *MedicalRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID
	r.nextID++
	cp := *m
	r.records[cp.ID] = &cp
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, m *MedicalRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[m.ID]; !ok {
		return ErrNotFound
	}
	cp := *m
	r.records[m.ID] = &cp
	return nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, d Deletion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.records[d.ID]
	if !ok {
		return ErrNotFound
	}
	at := d.At
	m.DeletedBy = strPtr(d.DeletedBy)
	m.DeletionReason = strPtr(d.Reason)
	m.DeletionDate = &at
	m.StatusID = intPtr(StatusInactive)
	return nil
}

func (r *MemoryRepo) StatusExists(ctx context.Context, id int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.statuses[id]
	return ok, nil
}

func (r *MemoryRepo) MedicalRecordTypeExists(ctx context.Context, id int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[id]
	return ok, nil
}

func (r *MemoryRepo) ListStatuses(ctx context.Context) ([]*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Status, 0, len(r.statuses))
	for _, s := range r.statuses {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) ListMedicalRecordTypes(ctx context.Context) ([]*MedicalRecordType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*MedicalRecordType, 0, len(r.types))
	for _, t := range r.types {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
