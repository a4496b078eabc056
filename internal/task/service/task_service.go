// Package service implements the marketplace operations over tasks:
// posting, browsing, accepting, and settling payment. Role and ownership
// checks go through the policy guard; state transitions go through the
// repository's locked update so concurrent callers serialize.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"my-friends/backend/internal/platform/ident"
	"my-friends/backend/internal/platform/rbac"
	"my-friends/backend/internal/policy/engine"
	"my-friends/backend/internal/task/domain"
	taskrepo "my-friends/backend/internal/task/repository"
	userdomain "my-friends/backend/internal/user/domain"
)

var (
	// ErrTaskNotFound means no task exists for the id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrForbidden means the caller's role or ownership does not permit
	// the operation.
	ErrForbidden = errors.New("operation not permitted")
	// ErrInvalidState means the task is not in the lifecycle state the
	// operation requires, e.g. accepting a task someone already took.
	ErrInvalidState = errors.New("task is not in the required state")
	// ErrValidation wraps bad input on task creation or payment.
	ErrValidation = errors.New("invalid input")
)

// CreateInput is the requester-supplied portion of a new task.
type CreateInput struct {
	Title            string
	Description      string
	ItemCost         float64
	ServiceFee       float64
	DeliveryLocation string
}

// DashboardStats summarizes a user's marketplace activity. Which fields
// are populated depends on the role.
type DashboardStats struct {
	Role            userdomain.Role `json:"role"`
	TotalTasks      int             `json:"totalTasks"`      // requester: tasks posted
	OpenTasks       int             `json:"openTasks"`       // requester: still unclaimed
	AvailableTasks  int             `json:"availableTasks"`  // helper: open tasks in the market
	InProgressTasks int             `json:"inProgressTasks"` // both: active tasks
	CompletedTasks  int             `json:"completedTasks"`  // both: finished tasks
}

// Service exposes the marketplace operations.
type Service struct {
	tasks taskrepo.Repository
	guard *rbac.Guard
	nowF  func() time.Time
	newID func() string
}

// NewService wires the task service.
func NewService(tasks taskrepo.Repository, guard *rbac.Guard) *Service {
	return &Service{
		tasks: tasks,
		guard: guard,
		nowF:  time.Now,
		newID: ident.NewID,
	}
}

// Create posts a new open task for the requester. totalCost is derived
// here and never recomputed.
func (s *Service) Create(ctx context.Context, caller *userdomain.User, in CreateInput) (*domain.Task, error) {
	if err := s.require(ctx, caller, "task.create", false); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	task := domain.New(s.newID(), in.Title, in.Description, in.DeliveryLocation,
		in.ItemCost, in.ServiceFee, caller, s.nowF().UTC())
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// ListAvailable returns open tasks for helpers to browse, including the
// requester's phone so the helper can coordinate.
func (s *Service) ListAvailable(ctx context.Context, caller *userdomain.User) ([]domain.Task, error) {
	if err := s.require(ctx, caller, "task.list_available", false); err != nil {
		return nil, err
	}
	return s.tasks.ListByStatus(ctx, domain.StatusOpen)
}

// Accept claims an open task for the helper. First acceptor wins; a task
// that already advanced returns ErrInvalidState.
func (s *Service) Accept(ctx context.Context, caller *userdomain.User, taskID string) (*domain.Task, error) {
	if err := s.require(ctx, caller, "task.accept", false); err != nil {
		return nil, err
	}
	now := s.nowF().UTC()
	task, err := s.tasks.Update(ctx, taskID, func(t *domain.Task) error {
		return t.Accept(caller, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, taskrepo.ErrNotFound):
			return nil, ErrTaskNotFound
		case errors.Is(err, domain.ErrNotOpen):
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("accept task: %w", err)
	}
	return task, nil
}

// ListMine returns the caller's tasks: posted tasks for a requester,
// accepted tasks for a helper.
func (s *Service) ListMine(ctx context.Context, caller *userdomain.User) ([]domain.Task, error) {
	if err := s.require(ctx, caller, "task.list_mine", false); err != nil {
		return nil, err
	}
	if caller.Role == userdomain.RoleRequester {
		return s.tasks.ListByRequester(ctx, caller.ID)
	}
	return s.tasks.ListByHelper(ctx, caller.ID)
}

// Payment returns the task for its payment page. Only the owning
// requester may view it, and only while the task is in progress.
func (s *Service) Payment(ctx context.Context, caller *userdomain.User, taskID string) (*domain.Task, error) {
	task, err := s.loadOwned(ctx, caller, taskID, "payment.view")
	if err != nil {
		return nil, err
	}
	if task.Status != domain.StatusInProgress {
		return nil, ErrInvalidState
	}
	return task, nil
}

// CompletePayment settles an in-progress task with the given method and
// marks it completed. paidAt and completedAt are the same instant.
func (s *Service) CompletePayment(ctx context.Context, caller *userdomain.User, taskID, method string) (*domain.Task, error) {
	pm, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if _, err := s.loadOwned(ctx, caller, taskID, "payment.complete"); err != nil {
		return nil, err
	}
	now := s.nowF().UTC()
	task, err := s.tasks.Update(ctx, taskID, func(t *domain.Task) error {
		return t.CompletePayment(pm, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, taskrepo.ErrNotFound):
			return nil, ErrTaskNotFound
		case errors.Is(err, domain.ErrNotInProgress):
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("complete payment: %w", err)
	}
	return task, nil
}

// History returns the caller's completed tasks.
func (s *Service) History(ctx context.Context, caller *userdomain.User) ([]domain.Task, error) {
	if err := s.require(ctx, caller, "task.history", false); err != nil {
		return nil, err
	}
	var (
		tasks []domain.Task
		err   error
	)
	if caller.Role == userdomain.RoleRequester {
		tasks, err = s.tasks.ListByRequester(ctx, caller.ID)
	} else {
		tasks, err = s.tasks.ListByHelper(ctx, caller.ID)
	}
	if err != nil {
		return nil, err
	}
	var done []domain.Task
	for i := range tasks {
		if tasks[i].Status == domain.StatusCompleted {
			done = append(done, tasks[i])
		}
	}
	return done, nil
}

// Dashboard returns activity counts for the caller's role.
func (s *Service) Dashboard(ctx context.Context, caller *userdomain.User) (*DashboardStats, error) {
	if err := s.require(ctx, caller, "dashboard.view", false); err != nil {
		return nil, err
	}
	stats := &DashboardStats{Role: caller.Role}
	if caller.Role == userdomain.RoleRequester {
		tasks, err := s.tasks.ListByRequester(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		stats.TotalTasks = len(tasks)
		for i := range tasks {
			switch tasks[i].Status {
			case domain.StatusOpen:
				stats.OpenTasks++
			case domain.StatusInProgress:
				stats.InProgressTasks++
			case domain.StatusCompleted:
				stats.CompletedTasks++
			}
		}
		return stats, nil
	}

	open, err := s.tasks.ListByStatus(ctx, domain.StatusOpen)
	if err != nil {
		return nil, err
	}
	stats.AvailableTasks = len(open)
	mine, err := s.tasks.ListByHelper(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	for i := range mine {
		switch mine[i].Status {
		case domain.StatusInProgress:
			stats.InProgressTasks++
		case domain.StatusCompleted:
			stats.CompletedTasks++
		}
	}
	return stats, nil
}

// loadOwned fetches the task and runs the ownership-sensitive policy
// check. Missing task wins over forbidden so requesters get a clean 404
// for ids that never existed.
func (s *Service) loadOwned(ctx context.Context, caller *userdomain.User, taskID, operation string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if err := s.require(ctx, caller, operation, task.OwnedBy(caller.ID)); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) require(ctx context.Context, caller *userdomain.User, operation string, isOwner bool) error {
	err := s.guard.Require(ctx, engine.AccessInput{
		Operation: operation,
		Role:      caller.Role,
		IsOwner:   isOwner,
	})
	if errors.Is(err, rbac.ErrDenied) {
		return ErrForbidden
	}
	return err
}

func validateCreate(in CreateInput) error {
	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case in.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case in.DeliveryLocation == "":
		return fmt.Errorf("%w: delivery location is required", ErrValidation)
	case in.ItemCost < 0:
		return fmt.Errorf("%w: item cost must not be negative", ErrValidation)
	case in.ServiceFee < 0:
		return fmt.Errorf("%w: service fee must not be negative", ErrValidation)
	}
	return nil
}
