package localdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"syncwell/internal/model"
	"syncwell/internal/repo"
	"syncwell/internal/stream"
)

// WellnessStore persists wellness entries. The date column holds the
// calendar day as "2006-01-02"; at most one row exists per owner per day.
type WellnessStore struct {
	db      *sql.DB
	changes *stream.Source[struct{}]
}

func NewWellnessStore(db *sql.DB) *WellnessStore {
	return &WellnessStore{db: db, changes: stream.NewSource[struct{}]()}
}

func (s *WellnessStore) Changes() *stream.Source[struct{}] { return s.changes }

const wellnessColumns = `id, user_id, date, timestamp_millis, water_intake_oz,
	water_goal_oz, sleep_hours, sleep_goal_hours, bed_time_millis,
	wake_time_millis, step_count, step_goal, mood_rating, energy_level,
	notes, streak_counter, last_modified_millis`

func (s *WellnessStore) Upsert(ctx context.Context, w *model.WellnessEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO wellness_entries (`+wellnessColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Date, model.Millis(w.Timestamp), w.WaterIntakeOz,
		w.WaterGoalOz, w.SleepHours, w.SleepGoalHours, model.Millis(w.BedTime),
		model.Millis(w.WakeTime), w.StepCount, w.StepGoal, w.MoodRating,
		w.EnergyLevel, w.Notes, w.StreakCounter, model.Millis(w.LastModified))
	if err != nil {
		return fmt.Errorf("upserting wellness entry: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func (s *WellnessStore) Delete(ctx context.Context, w *model.WellnessEntry) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM wellness_entries WHERE id = ?`, w.ID)
	if err != nil {
		return fmt.Errorf("deleting wellness entry: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func (s *WellnessStore) ListForOwner(ctx context.Context, ownerID string) ([]*model.WellnessEntry, error) {
	return s.query(ctx, `
		SELECT `+wellnessColumns+` FROM wellness_entries
		WHERE user_id = ? AND user_id != ''
		ORDER BY timestamp_millis DESC`, ownerID)
}

// EntriesForRange returns the owner's entries with timestamps in [from, to],
// newest first.
func (s *WellnessStore) EntriesForRange(ctx context.Context, ownerID string, from, to time.Time) ([]*model.WellnessEntry, error) {
	return s.query(ctx, `
		SELECT `+wellnessColumns+` FROM wellness_entries
		WHERE user_id = ? AND user_id != ''
		  AND timestamp_millis >= ? AND timestamp_millis <= ?
		ORDER BY timestamp_millis DESC`,
		ownerID, model.Millis(from), model.Millis(to))
}

// EntryForDay returns the owner's entry for the calendar day containing day,
// or nil if none exists.
func (s *WellnessStore) EntryForDay(ctx context.Context, ownerID string, day time.Time) (*model.WellnessEntry, error) {
	entries, err := s.query(ctx, `
		SELECT `+wellnessColumns+` FROM wellness_entries
		WHERE user_id = ? AND user_id != '' AND date = ?
		ORDER BY timestamp_millis DESC LIMIT 1`,
		ownerID, day.Format(model.DateFormat))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// SummaryForPeriod aggregates mood, sleep and energy over [from, to].
// Averages are zero when the period has no entries.
func (s *WellnessStore) SummaryForPeriod(ctx context.Context, ownerID string, from, to time.Time) (*repo.WellnessSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(mood_rating), 0),
		       COALESCE(AVG(sleep_hours), 0),
		       COALESCE(AVG(energy_level), 0)
		FROM wellness_entries
		WHERE user_id = ? AND user_id != ''
		  AND timestamp_millis >= ? AND timestamp_millis <= ?`,
		ownerID, model.Millis(from), model.Millis(to))

	var summary repo.WellnessSummary
	err := row.Scan(&summary.Entries, &summary.AvgMood, &summary.AvgSleep, &summary.AvgEnergy)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("summarizing wellness entries: %w", err)
	}
	return &summary, nil
}

func (s *WellnessStore) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM wellness_entries WHERE user_id = ? AND user_id != ''`, ownerID)
	if err != nil {
		return fmt.Errorf("deleting owner wellness entries: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func (s *WellnessStore) query(ctx context.Context, q string, args ...any) ([]*model.WellnessEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing wellness entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.WellnessEntry
	for rows.Next() {
		var w model.WellnessEntry
		var timestamp, bedTime, wakeTime, lastModified int64
		err := rows.Scan(&w.ID, &w.UserID, &w.Date, &timestamp,
			&w.WaterIntakeOz, &w.WaterGoalOz, &w.SleepHours, &w.SleepGoalHours,
			&bedTime, &wakeTime, &w.StepCount, &w.StepGoal, &w.MoodRating,
			&w.EnergyLevel, &w.Notes, &w.StreakCounter, &lastModified)
		if err != nil {
			return nil, fmt.Errorf("scanning wellness row: %w", err)
		}
		w.Timestamp = model.FromMillis(timestamp)
		w.BedTime = model.FromMillis(bedTime)
		w.WakeTime = model.FromMillis(wakeTime)
		w.LastModified = model.FromMillis(lastModified)
		entries = append(entries, &w)
	}
	return entries, rows.Err()
}
