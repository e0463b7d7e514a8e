package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"syncwell/internal/model"
	"syncwell/internal/stream"
)

// MedicineStore persists medicines.
type MedicineStore struct {
	db      *sql.DB
	changes *stream.Source[struct{}]
}

func NewMedicineStore(db *sql.DB) *MedicineStore {
	return &MedicineStore{db: db, changes: stream.NewSource[struct{}]()}
}

func (s *MedicineStore) Changes() *stream.Source[struct{}] { return s.changes }

const medicineColumns = `id, user_id, name, dosage, time_millis, with_food,
	duration_days, start_date_millis, notes, category, last_modified_millis,
	last_taken_millis`

func (s *MedicineStore) Upsert(ctx context.Context, m *model.Medicine) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO medicines (`+medicineColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name, m.Dosage, model.Millis(m.Time), m.WithFood,
		m.DurationDays, model.Millis(m.StartDate), m.Notes, string(m.Category),
		model.Millis(m.LastModified), model.Millis(m.LastTaken))
	if err != nil {
		return fmt.Errorf("upserting medicine: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func (s *MedicineStore) Delete(ctx context.Context, m *model.Medicine) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, m.ID)
	if err != nil {
		return fmt.Errorf("deleting medicine: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func (s *MedicineStore) ListForOwner(ctx context.Context, ownerID string) ([]*model.Medicine, error) {
	return s.query(ctx, `
		SELECT `+medicineColumns+` FROM medicines
		WHERE user_id = ? AND user_id != ''
		ORDER BY time_millis`, ownerID)
}

// DueBefore returns the owner's medicines scheduled at or before until.
func (s *MedicineStore) DueBefore(ctx context.Context, ownerID string, until time.Time) ([]*model.Medicine, error) {
	return s.query(ctx, `
		SELECT `+medicineColumns+` FROM medicines
		WHERE user_id = ? AND user_id != '' AND time_millis <= ?
		ORDER BY time_millis`, ownerID, model.Millis(until))
}

func (s *MedicineStore) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM medicines WHERE user_id = ? AND user_id != ''`, ownerID)
	if err != nil {
		return fmt.Errorf("deleting owner medicines: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func (s *MedicineStore) query(ctx context.Context, q string, args ...any) ([]*model.Medicine, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}
	defer rows.Close()

	var meds []*model.Medicine
	for rows.Next() {
		var m model.Medicine
		var timeM, startDate, lastModified, lastTaken int64
		var category string
		err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &timeM,
			&m.WithFood, &m.DurationDays, &startDate, &m.Notes, &category,
			&lastModified, &lastTaken)
		if err != nil {
			return nil, fmt.Errorf("scanning medicine row: %w", err)
		}
		m.Time = model.FromMillis(timeM)
		m.StartDate = model.FromMillis(startDate)
		m.LastModified = model.FromMillis(lastModified)
		m.LastTaken = model.FromMillis(lastTaken)
		m.Category = model.MedicineCategory(category)
		meds = append(meds, &m)
	}
	return meds, rows.Err()
}
