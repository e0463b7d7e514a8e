package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"syncwell/internal/model"
	"syncwell/internal/stream"
)

// TaskStore persists tasks. Owner-scoped queries never match rows with an
// empty user_id, so unowned rows are invisible to every caller.
type TaskStore struct {
	db      *sql.DB
	changes *stream.Source[struct{}]
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db, changes: stream.NewSource[struct{}]()}
}

func (s *TaskStore) Changes() *stream.Source[struct{}] { return s.changes }

const taskColumns = `id, user_id, title, description, priority, notes, completed,
	last_modified_millis, deadline_millis, importance, reminder_type,
	reminder_days_before_deadline, reminder_enabled`

func (s *TaskStore) Upsert(ctx context.Context, t *model.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, t.Priority, t.Notes,
		t.Completed, model.Millis(t.LastModified), model.Millis(t.Deadline),
		t.Importance, string(t.ReminderMode), t.ReminderDaysBefore,
		t.ReminderEnabled)
	if err != nil {
		return fmt.Errorf("upserting task: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, t *model.Task) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func (s *TaskStore) ListForOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND user_id != ''
		ORDER BY deadline_millis`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = ? AND user_id != ''`, ownerID)
	if err != nil {
		return fmt.Errorf("deleting owner tasks: %w", err)
	}
	s.changes.Publish(struct{}{})
	return nil
}

func scanTask(rows *sql.Rows) (*model.Task, error) {
	var t model.Task
	var lastModified, deadline int64
	var reminderMode string
	err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority,
		&t.Notes, &t.Completed, &lastModified, &deadline, &t.Importance,
		&reminderMode, &t.ReminderDaysBefore, &t.ReminderEnabled)
	if err != nil {
		return nil, fmt.Errorf("scanning task row: %w", err)
	}
	t.LastModified = model.FromMillis(lastModified)
	t.Deadline = model.FromMillis(deadline)
	t.ReminderMode = model.ReminderMode(reminderMode)
	return &t, nil
}
