package repository

import (
	"context"
	"path/filepath"

	"my-friends/backend/internal/storage/jsonstore"
	"my-friends/backend/internal/task/domain"
)

// JSONFileRepository stores the task collection in tasks.json as a
// whole-file snapshot.
type JSONFileRepository struct {
	col *jsonstore.Collection[domain.Task]
}

// NewJSONFileRepository opens (or initializes) tasks.json under dataDir.
func NewJSONFileRepository(dataDir string) (*JSONFileRepository, error) {
	col, err := jsonstore.Open[domain.Task](filepath.Join(dataDir, "tasks.json"))
	if err != nil {
		return nil, err
	}
	return &JSONFileRepository{col: col}, nil
}

// GetByID returns the task for id, or nil if not found.
func (r *JSONFileRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	tasks, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			t := tasks[i]
			return &t, nil
		}
	}
	return nil, nil
}

// List returns all tasks in stored order.
func (r *JSONFileRepository) List(ctx context.Context) ([]domain.Task, error) {
	return r.col.Load()
}

// ListByStatus returns tasks in the given lifecycle state.
func (r *JSONFileRepository) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.Status == status })
}

// ListByRequester returns tasks posted by the requester.
func (r *JSONFileRepository) ListByRequester(ctx context.Context, requesterID string) ([]domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.RequesterID == requesterID })
}

// ListByHelper returns tasks accepted by the helper.
func (r *JSONFileRepository) ListByHelper(ctx context.Context, helperID string) ([]domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.AcceptedBy(helperID) })
}

// Create appends the task and rewrites the collection.
func (r *JSONFileRepository) Create(ctx context.Context, t *domain.Task) error {
	return r.col.Update(func(tasks []domain.Task) ([]domain.Task, error) {
		return append(tasks, *t), nil
	})
}

// Update mutates the task with the given id under the collection lock, so
// concurrent transitions on the same task serialize through the file write.
func (r *JSONFileRepository) Update(ctx context.Context, id string, mutate func(*domain.Task) error) (*domain.Task, error) {
	var updated *domain.Task
	err := r.col.Update(func(tasks []domain.Task) ([]domain.Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				if err := mutate(&tasks[i]); err != nil {
					return nil, err
				}
				t := tasks[i]
				updated = &t
				return tasks, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *JSONFileRepository) filter(keep func(*domain.Task) bool) ([]domain.Task, error) {
	tasks, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	var out []domain.Task
	for i := range tasks {
		if keep(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out, nil
}
