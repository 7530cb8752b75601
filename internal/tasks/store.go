package tasks

import (
	"context"
	"errors"
)

var ErrStoreNotFound = errors.New("task not found in store")

// Store is durable keyed storage for task records. UpdateTask is the only
// operation that advances UpdatedAt; SaveTask persists a record verbatim.
type Store interface {
	SaveTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, taskID string) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	UpdateTask(ctx context.Context, taskID string, fields Update) (Task, error)
	Close() error
}
