package repo

import (
	"context"

	"syncwell/internal/identity"
	"syncwell/internal/model"
)

// TaskRepository is the entity repository for tasks.
type TaskRepository struct {
	*Repository[*model.Task]
}

// NewTaskRepository creates the task repository.
func NewTaskRepository(local LocalStore[*model.Task], remote RemoteStore[*model.Task], owner identity.Provider, logger Logger, clock Clock) *TaskRepository {
	return &TaskRepository{
		Repository: New("task", local, remote, owner, logger, clock),
	}
}

// Complete toggles the task's completion flag and persists it.
func (r *TaskRepository) Complete(ctx context.Context, t *model.Task, done bool) error {
	t.Completed = done
	return r.Upsert(ctx, t)
}
