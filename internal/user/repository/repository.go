package repository

import (
	"context"

	"my-friends/backend/internal/user/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) when
// no record matches; errors are storage failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
