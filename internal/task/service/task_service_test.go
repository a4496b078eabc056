package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"my-friends/backend/internal/platform/rbac"
	"my-friends/backend/internal/policy/engine"
	"my-friends/backend/internal/task/domain"
	taskrepo "my-friends/backend/internal/task/repository"
	userdomain "my-friends/backend/internal/user/domain"
)

// memRepo is an in-memory task repository. Update runs the mutation under
// the repository mutex, matching the locking the file and database
// backends provide.
type memRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: make(map[string]*domain.Task)}
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *memRepo) List(ctx context.Context) ([]domain.Task, error) {
	return r.filter(func(*domain.Task) bool { return true })
}

func (r *memRepo) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.Status == status })
}

func (r *memRepo) ListByRequester(ctx context.Context, requesterID string) ([]domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.RequesterID == requesterID })
}

func (r *memRepo) ListByHelper(ctx context.Context, helperID string) ([]domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.AcceptedBy(helperID) })
}

func (r *memRepo) Create(ctx context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.tasks[t.ID] = &c
	return nil
}

func (r *memRepo) Update(ctx context.Context, id string, mutate func(*domain.Task) error) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, taskrepo.ErrNotFound
	}
	if err := mutate(t); err != nil {
		return nil, err
	}
	c := *t
	return &c, nil
}

func (r *memRepo) filter(keep func(*domain.Task) bool) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Task
	for _, t := range r.tasks {
		if keep(t) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	eval, err := engine.NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	repo := newMemRepo()
	s := NewService(repo, rbac.NewGuard(eval))
	// Timestamp IDs collide when tests create tasks back to back.
	var seq int
	var mu sync.Mutex
	s.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("t%d", seq)
	}
	return s, repo
}

func requester() *userdomain.User {
	return &userdomain.User{ID: "r1", Name: "Somchai", Phone: "0811111111", Role: userdomain.RoleRequester}
}

func helper() *userdomain.User {
	return &userdomain.User{ID: "h1", Name: "Suda", Phone: "0822222222", Role: userdomain.RoleHelper}
}

func validInput() CreateInput {
	return CreateInput{
		Title:            "Buy lunch",
		Description:      "Pad thai from the canteen",
		ItemCost:         80,
		ServiceFee:       40,
		DeliveryLocation: "Dorm A",
	}
}

func TestCreate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	task, err := s.Create(ctx, requester(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.TotalCost != 120 || task.Status != domain.StatusOpen {
		t.Errorf("task = %+v", task)
	}
	if task.RequesterID != "r1" || task.RequesterPhone != "0811111111" {
		t.Errorf("requester snapshot = %q/%q", task.RequesterID, task.RequesterPhone)
	}
}

func TestCreate_HelperForbidden(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.Create(context.Background(), helper(), validInput()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	bad := validInput()
	bad.Title = ""
	if _, err := s.Create(ctx, requester(), bad); !errors.Is(err, ErrValidation) {
		t.Errorf("empty title err = %v, want ErrValidation", err)
	}

	bad = validInput()
	bad.ItemCost = -1
	if _, err := s.Create(ctx, requester(), bad); !errors.Is(err, ErrValidation) {
		t.Errorf("negative cost err = %v, want ErrValidation", err)
	}

	free := validInput()
	free.ItemCost, free.ServiceFee = 0, 0
	if _, err := s.Create(ctx, requester(), free); err != nil {
		t.Errorf("zero costs rejected: %v", err)
	}
}

func TestAccept(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	posted, err := s.Create(ctx, requester(), validInput())
	if err != nil {
		t.Fatal(err)
	}

	task, err := s.Accept(ctx, helper(), posted.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if task.Status != domain.StatusInProgress || !task.AcceptedBy("h1") {
		t.Errorf("task = %+v", task)
	}

	other := &userdomain.User{ID: "h2", Name: "Nok", Role: userdomain.RoleHelper}
	if _, err := s.Accept(ctx, other, posted.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second accept err = %v, want ErrInvalidState", err)
	}
}

func TestAccept_RequesterForbidden(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	posted, err := s.Create(ctx, requester(), validInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Accept(ctx, requester(), posted.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestAccept_Missing(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.Accept(context.Background(), helper(), "nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestAccept_ConcurrentOneWinner(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	posted, err := s.Create(ctx, requester(), validInput())
	if err != nil {
		t.Fatal(err)
	}

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := &userdomain.User{ID: "h" + string(rune('0'+i)), Name: "H", Role: userdomain.RoleHelper}
			_, errs[i] = s.Accept(ctx, h, posted.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidState):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}

func TestPaymentFlow(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	req := requester()

	posted, err := s.Create(ctx, req, validInput())
	if err != nil {
		t.Fatal(err)
	}

	// Payment page is not reachable while the task is open.
	if _, err := s.Payment(ctx, req, posted.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("payment on open task err = %v, want ErrInvalidState", err)
	}
	if _, err := s.CompletePayment(ctx, req, posted.ID, "cash"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("complete on open task err = %v, want ErrInvalidState", err)
	}

	if _, err := s.Accept(ctx, helper(), posted.ID); err != nil {
		t.Fatal(err)
	}

	task, err := s.Payment(ctx, req, posted.ID)
	if err != nil {
		t.Fatalf("Payment: %v", err)
	}
	if task.Status != domain.StatusInProgress {
		t.Errorf("status = %q", task.Status)
	}

	task, err = s.CompletePayment(ctx, req, posted.ID, "promptpay")
	if err != nil {
		t.Fatalf("CompletePayment: %v", err)
	}
	if task.Status != domain.StatusCompleted || task.PaymentStatus != domain.PaymentPaid {
		t.Errorf("task = %+v", task)
	}
	if task.PaidAt == nil || task.CompletedAt == nil || !task.PaidAt.Equal(*task.CompletedAt) {
		t.Error("paidAt and completedAt must match")
	}

	// No double settlement.
	if _, err := s.CompletePayment(ctx, req, posted.ID, "cash"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second settlement err = %v, want ErrInvalidState", err)
	}
}

func TestPayment_OwnershipAndRole(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	posted, err := s.Create(ctx, requester(), validInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Accept(ctx, helper(), posted.ID); err != nil {
		t.Fatal(err)
	}

	stranger := &userdomain.User{ID: "r2", Name: "Lek", Role: userdomain.RoleRequester}
	if _, err := s.Payment(ctx, stranger, posted.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other requester err = %v, want ErrForbidden", err)
	}
	if _, err := s.CompletePayment(ctx, stranger, posted.ID, "cash"); !errors.Is(err, ErrForbidden) {
		t.Errorf("other requester complete err = %v, want ErrForbidden", err)
	}
	if _, err := s.CompletePayment(ctx, helper(), posted.ID, "cash"); !errors.Is(err, ErrForbidden) {
		t.Errorf("helper complete err = %v, want ErrForbidden", err)
	}
}

func TestCompletePayment_BadMethod(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	posted, err := s.Create(ctx, requester(), validInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompletePayment(ctx, requester(), posted.ID, "barter"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestListMineAndHistory(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	req, help := requester(), helper()

	first, err := s.Create(ctx, req, validInput())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Create(ctx, req, validInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Accept(ctx, help, first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompletePayment(ctx, req, first.ID, "cash"); err != nil {
		t.Fatal(err)
	}

	mine, err := s.ListMine(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("requester ListMine = %d tasks, want 2", len(mine))
	}

	mine, err = s.ListMine(ctx, help)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != first.ID {
		t.Errorf("helper ListMine = %+v", mine)
	}

	hist, err := s.History(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].ID != first.ID {
		t.Errorf("requester History = %+v", hist)
	}

	hist, err = s.History(ctx, help)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 {
		t.Errorf("helper History = %d tasks, want 1", len(hist))
	}

	avail, err := s.ListAvailable(ctx, help)
	if err != nil {
		t.Fatal(err)
	}
	if len(avail) != 1 || avail[0].ID != second.ID {
		t.Errorf("ListAvailable = %+v", avail)
	}
	if _, err := s.ListAvailable(ctx, req); !errors.Is(err, ErrForbidden) {
		t.Errorf("requester browsing err = %v, want ErrForbidden", err)
	}
}

func TestDashboard(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	req, help := requester(), helper()

	first, err := s.Create(ctx, req, validInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, req, validInput()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Accept(ctx, help, first.ID); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Dashboard(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalTasks != 2 || stats.OpenTasks != 1 || stats.InProgressTasks != 1 || stats.CompletedTasks != 0 {
		t.Errorf("requester stats = %+v", stats)
	}

	stats, err = s.Dashboard(ctx, help)
	if err != nil {
		t.Fatal(err)
	}
	if stats.AvailableTasks != 1 || stats.InProgressTasks != 1 || stats.CompletedTasks != 0 {
		t.Errorf("helper stats = %+v", stats)
	}
}
