// Package rbac is the thin guard the services call before any
// role-sensitive operation. Decisions come from the policy engine; this
// package only translates a deny into an error.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"my-friends/backend/internal/policy/engine"
)

// ErrDenied is returned when the policy denies the operation.
var ErrDenied = errors.New("access denied")

// Guard asks the policy evaluator whether an operation may proceed.
type Guard struct {
	eval engine.Evaluator
}

// NewGuard returns a guard backed by the evaluator.
func NewGuard(eval engine.Evaluator) *Guard {
	return &Guard{eval: eval}
}

// Require returns ErrDenied when the policy denies the input, nil when it
// allows. Evaluator failures surface as errors, never as silent allows.
func (g *Guard) Require(ctx context.Context, input engine.AccessInput) error {
	allowed, err := g.eval.Allow(ctx, input)
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if !allowed {
		return ErrDenied
	}
	return nil
}
