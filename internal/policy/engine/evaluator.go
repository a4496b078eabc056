package engine

import (
	"context"

	userdomain "my-friends/backend/internal/user/domain"
)

// AccessInput describes one attempted marketplace operation.
type AccessInput struct {
	// Operation names the action, e.g. "task.create" or "payment.complete".
	Operation string
	// Role is the caller's role.
	Role userdomain.Role
	// IsOwner reports whether the caller is the requester who posted the
	// task the operation targets. Ignored for operations without a target.
	IsOwner bool
}

// Evaluator decides whether a caller may perform a marketplace operation.
type Evaluator interface {
	// Allow evaluates access policy for the input. A false result with a
	// nil error is a clean deny.
	Allow(ctx context.Context, input AccessInput) (bool, error)
}
