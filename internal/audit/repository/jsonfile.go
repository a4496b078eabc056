package repository

import (
	"context"
	"path/filepath"

	"my-friends/backend/internal/audit/domain"
	"my-friends/backend/internal/storage/jsonstore"
)

// JSONFileRepository appends audit entries to audit.json.
type JSONFileRepository struct {
	col *jsonstore.Collection[domain.Entry]
}

// NewJSONFileRepository opens (or initializes) audit.json under dataDir.
func NewJSONFileRepository(dataDir string) (*JSONFileRepository, error) {
	col, err := jsonstore.Open[domain.Entry](filepath.Join(dataDir, "audit.json"))
	if err != nil {
		return nil, err
	}
	return &JSONFileRepository{col: col}, nil
}

// Create appends the entry.
func (r *JSONFileRepository) Create(ctx context.Context, e *domain.Entry) error {
	return r.col.Update(func(entries []domain.Entry) ([]domain.Entry, error) {
		return append(entries, *e), nil
	})
}

// List returns the most recent entries, newest first, at most limit.
// limit <= 0 returns everything.
func (r *JSONFileRepository) List(ctx context.Context, limit int) ([]domain.Entry, error) {
	entries, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	// Stored oldest first; reverse for newest first.
	out := make([]domain.Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
