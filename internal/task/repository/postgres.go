package repository

import (
	"context"
	"database/sql"
	"errors"

	"my-friends/backend/internal/task/domain"
)

// PostgresRepository persists tasks in the tasks table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a task repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = "id, title, description, item_cost, service_fee, total_cost, " +
	"delivery_location, requester_id, requester_name, requester_phone, " +
	"helper_id, helper_name, status, payment_status, payment_method, " +
	"paid_at, created_at, accepted_at, completed_at"

// GetByID returns the task for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
	return scanTask(row)
}

// List returns all tasks ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.Task, error) {
	return r.query(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY created_at")
}

// ListByStatus returns tasks in the given lifecycle state.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error) {
	return r.query(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE status = $1 ORDER BY created_at", status)
}

// ListByRequester returns tasks posted by the requester.
func (r *PostgresRepository) ListByRequester(ctx context.Context, requesterID string) ([]domain.Task, error) {
	return r.query(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE requester_id = $1 ORDER BY created_at", requesterID)
}

// ListByHelper returns tasks accepted by the helper.
func (r *PostgresRepository) ListByHelper(ctx context.Context, helperID string) ([]domain.Task, error) {
	return r.query(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE helper_id = $1 ORDER BY created_at", helperID)
}

// Create persists the task. The task must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES "+
			"($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)",
		t.ID, t.Title, t.Description, t.ItemCost, t.ServiceFee, t.TotalCost,
		t.DeliveryLocation, t.RequesterID, t.RequesterName, t.RequesterPhone,
		t.HelperID, t.HelperName, t.Status, t.PaymentStatus, t.PaymentMethod,
		t.PaidAt, t.CreatedAt, t.AcceptedAt, t.CompletedAt)
	return err
}

// Update loads the task with SELECT ... FOR UPDATE inside a transaction,
// applies mutate, and writes the result back. Concurrent transitions on the
// same task serialize on the row lock.
func (r *PostgresRepository) Update(ctx context.Context, id string, mutate func(*domain.Task) error) (*domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 FOR UPDATE", id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if err := mutate(t); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET helper_id = $2, helper_name = $3, status = $4,
			payment_status = $5, payment_method = $6, paid_at = $7,
			accepted_at = $8, completed_at = $9
		WHERE id = $1`,
		t.ID, t.HelperID, t.HelperName, t.Status,
		t.PaymentStatus, t.PaymentMethod, t.PaidAt,
		t.AcceptedAt, t.CompletedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...any) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(taskFields(&t)...); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row *sql.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(taskFields(&t)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func taskFields(t *domain.Task) []any {
	return []any{
		&t.ID, &t.Title, &t.Description, &t.ItemCost, &t.ServiceFee, &t.TotalCost,
		&t.DeliveryLocation, &t.RequesterID, &t.RequesterName, &t.RequesterPhone,
		&t.HelperID, &t.HelperName, &t.Status, &t.PaymentStatus, &t.PaymentMethod,
		&t.PaidAt, &t.CreatedAt, &t.AcceptedAt, &t.CompletedAt,
	}
}
