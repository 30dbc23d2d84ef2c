package storage

import (
	"context"

	"github.com/poiesic/taskquery/core"
)

// TaskSource supplies the task collection a query runs against.
// Implementations must be safe for concurrent use. The returned tasks are
// treated as read-only for the duration of a query.
type TaskSource interface {
	Tasks(ctx context.Context) ([]*core.Task, error)
}

// TaskRepository is a persistent, mutable TaskSource.
type TaskRepository interface {
	TaskSource

	// PutTasks inserts or overwrites tasks by ID.
	PutTasks(ctx context.Context, tasks ...*core.Task) error

	// ReplaceTasks atomically replaces the whole stored task set.
	ReplaceTasks(ctx context.Context, tasks []*core.Task) error

	// ReplaceFile replaces the tasks stored for one source file.
	// An empty slice removes the file's tasks.
	ReplaceFile(ctx context.Context, path string, tasks []*core.Task) error

	// DeleteTasks removes tasks by ID.
	// Returns ErrNotFound if any task doesn't exist.
	DeleteTasks(ctx context.Context, ids ...core.ID) error

	// GetTask retrieves a single task by ID.
	// Returns ErrNotFound if the task doesn't exist.
	GetTask(ctx context.Context, id core.ID) (*core.Task, error)

	// GetTasksByPath returns the tasks of one source file ordered by line.
	GetTasksByPath(ctx context.Context, path string) ([]*core.Task, error)

	// Count returns the number of stored tasks.
	Count(ctx context.Context) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// StaticSource is an in-memory TaskSource over a fixed slice.
type StaticSource []*core.Task

// Tasks returns a shallow copy of the slice.
func (s StaticSource) Tasks(ctx context.Context) ([]*core.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*core.Task, len(s))
	copy(out, s)
	return out, nil
}
