// Package engine evaluates marketplace access rules with in-process OPA
// Rego. Role and ownership checks live in one policy document instead of
// being scattered through handlers.
package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.myfriends.marketplace_access.allow"

// Access policy for marketplace operations. Requesters post tasks and
// settle payments on tasks they own; helpers browse and accept. Listing
// one's own tasks and history is open to both roles.
const accessRegoPolicy = `package myfriends.marketplace_access

default allow = false

allow if {
	input.operation == "task.create"
	input.role == "requester"
}

allow if {
	input.operation == "task.list_available"
	input.role == "helper"
}

allow if {
	input.operation == "task.accept"
	input.role == "helper"
}

allow if {
	input.operation == "task.list_mine"
}

allow if {
	input.operation == "task.history"
}

allow if {
	input.operation == "payment.view"
	input.role == "requester"
	input.is_owner
}

allow if {
	input.operation == "payment.complete"
	input.role == "requester"
	input.is_owner
}

allow if {
	input.operation == "dashboard.view"
}
`

// OPAEvaluator compiles the access policy once and evaluates it per call.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator compiles the built-in access policy.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{
		"marketplace_access.rego": accessRegoPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// Allow evaluates the access policy for the input.
func (e *OPAEvaluator) Allow(ctx context.Context, input AccessInput) (bool, error) {
	q := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(e.compiler),
		rego.Input(map[string]interface{}{
			"operation": input.Operation,
			"role":      string(input.Role),
			"is_owner":  input.IsOwner,
		}),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("access policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy returned non-boolean %T", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck verifies the compiled policy evaluates end to end.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Allow(ctx, AccessInput{Operation: "task.list_mine", Role: "requester"})
	return err
}
