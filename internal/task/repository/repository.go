package repository

import (
	"context"
	"errors"

	"my-friends/backend/internal/task/domain"
)

// ErrNotFound is returned by Update when no task matches the id. Plain
// lookups return (nil, nil) for missing rows instead.
var ErrNotFound = errors.New("task not found")

// Repository defines persistence for tasks.
//
// Update applies mutate to the stored task identified by id while holding
// the backend's write exclusivity (file lock for the JSON store, row lock
// for Postgres), then persists the result. If mutate returns an error the
// task is left unchanged and the error is passed through. This is how
// compare-and-set transitions such as accept stay atomic under concurrent
// callers.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error)
	ListByRequester(ctx context.Context, requesterID string) ([]domain.Task, error)
	ListByHelper(ctx context.Context, helperID string) ([]domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, id string, mutate func(*domain.Task) error) (*domain.Task, error)
}
