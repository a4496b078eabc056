package repository

import (
	"context"

	"my-friends/backend/internal/audit/domain"
)

// Repository defines persistence for audit entries.
type Repository interface {
	Create(ctx context.Context, e *domain.Entry) error
	List(ctx context.Context, limit int) ([]domain.Entry, error)
}
