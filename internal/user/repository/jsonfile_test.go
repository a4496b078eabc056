package repository

import (
	"context"
	"testing"
	"time"

	"my-friends/backend/internal/user/domain"
)

func TestJSONFile_UserRoundTrip(t *testing.T) {
	r, err := NewJSONFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONFileRepository: %v", err)
	}
	ctx := context.Background()

	u := &domain.User{
		ID:        "u1",
		Name:      "Somchai",
		Phone:     "0811111111",
		Location:  "Bangkok",
		Role:      domain.RoleRequester,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byID, err := r.GetByID(ctx, "u1")
	if err != nil || byID == nil || byID.Phone != "0811111111" {
		t.Fatalf("GetByID = (%+v, %v)", byID, err)
	}

	byPhone, err := r.GetByPhone(ctx, "0811111111")
	if err != nil || byPhone == nil || byPhone.ID != "u1" {
		t.Fatalf("GetByPhone = (%+v, %v)", byPhone, err)
	}

	// Missing lookups are (nil, nil), not errors.
	missing, err := r.GetByPhone(ctx, "0899999999")
	if err != nil || missing != nil {
		t.Fatalf("missing = (%v, %v)", missing, err)
	}

	list, err := r.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = (%d users, %v)", len(list), err)
	}
}
