package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SyncOperation is one recorded sync or maintenance run.
type SyncOperation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Operation  string
	Parameters string
	Status     string
}

// SyncOperationStore records operation history for the history command.
type SyncOperationStore struct {
	db *sql.DB
}

func NewSyncOperationStore(db *sql.DB) *SyncOperationStore {
	return &SyncOperationStore{db: db}
}

// Create records the start of an operation and returns its row.
func (s *SyncOperationStore) Create(ctx context.Context, operation, parameters string) (*SyncOperation, error) {
	started := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_operations (started_at, operation, parameters, status)
		VALUES (?, ?, ?, 'running')`,
		started, operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("creating sync operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading sync operation id: %w", err)
	}
	return &SyncOperation{
		ID:         id,
		StartedAt:  started,
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
	}, nil
}

// Finish marks the operation finished with the given status.
func (s *SyncOperationStore) Finish(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_operations SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now(), status, id)
	if err != nil {
		return fmt.Errorf("finishing sync operation: %w", err)
	}
	return nil
}

// List returns the most recent operations, newest first.
func (s *SyncOperationStore) List(ctx context.Context, limit int) ([]*SyncOperation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, operation, parameters, status
		FROM sync_operations ORDER BY id DESC LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing sync operations: %w", err)
	}
	defer rows.Close()

	var ops []*SyncOperation
	for rows.Next() {
		var op SyncOperation
		err := rows.Scan(&op.ID, &op.StartedAt, &op.FinishedAt, &op.Operation,
			&op.Parameters, &op.Status)
		if err != nil {
			return nil, fmt.Errorf("scanning sync operation row: %w", err)
		}
		ops = append(ops, &op)
	}
	return ops, rows.Err()
}
