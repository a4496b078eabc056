package repository

import (
	"context"
	"path/filepath"

	"my-friends/backend/internal/storage/jsonstore"
	"my-friends/backend/internal/user/domain"
)

// JSONFileRepository stores the user collection in users.json as a
// whole-file snapshot.
type JSONFileRepository struct {
	col *jsonstore.Collection[domain.User]
}

// NewJSONFileRepository opens (or initializes) users.json under dataDir.
func NewJSONFileRepository(dataDir string) (*JSONFileRepository, error) {
	col, err := jsonstore.Open[domain.User](filepath.Join(dataDir, "users.json"))
	if err != nil {
		return nil, err
	}
	return &JSONFileRepository{col: col}, nil
}

// GetByID returns the user for id, or nil if not found.
func (r *JSONFileRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// GetByPhone returns the user with the given phone (exact match), or nil if not found.
func (r *JSONFileRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	users, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Phone == phone {
			u := users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// List returns all users.
func (r *JSONFileRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.col.Load()
}

// Create appends the user and rewrites the collection. The user must have
// ID set; it is not assigned by this method.
func (r *JSONFileRepository) Create(ctx context.Context, u *domain.User) error {
	return r.col.Update(func(users []domain.User) ([]domain.User, error) {
		return append(users, *u), nil
	})
}
