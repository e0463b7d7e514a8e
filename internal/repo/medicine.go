package repo

import (
	"context"
	"time"

	"syncwell/internal/identity"
	"syncwell/internal/model"
)

// MedicineLocalStore extends the generic local store with the medicine
// schedule queries.
type MedicineLocalStore interface {
	LocalStore[*model.Medicine]

	// DueBefore returns the owner's medicines scheduled at or before the
	// given instant.
	DueBefore(ctx context.Context, ownerID string, until time.Time) ([]*model.Medicine, error)
}

// MedicineRepository is the entity repository for medicines.
type MedicineRepository struct {
	*Repository[*model.Medicine]
	local MedicineLocalStore
}

// NewMedicineRepository creates the medicine repository.
func NewMedicineRepository(local MedicineLocalStore, remote RemoteStore[*model.Medicine], owner identity.Provider, logger Logger, clock Clock) *MedicineRepository {
	return &MedicineRepository{
		Repository: New("medicine", local, remote, owner, logger, clock),
		local:      local,
	}
}

// Upsert derives the category from the scheduled time before persisting.
func (r *MedicineRepository) Upsert(ctx context.Context, m *model.Medicine) error {
	m.Category = model.CategoryForTime(m.Time)
	return r.Repository.Upsert(ctx, m)
}

// MarkTaken records the last-taken instant and persists the medicine.
func (r *MedicineRepository) MarkTaken(ctx context.Context, m *model.Medicine, at time.Time) error {
	m.LastTaken = at
	return r.Upsert(ctx, m)
}

// DueBefore lists the owner's medicines scheduled at or before until.
// Local-only read.
func (r *MedicineRepository) DueBefore(ctx context.Context, ownerID string, until time.Time) ([]*model.Medicine, error) {
	return r.local.DueBefore(ctx, ownerID, until)
}
