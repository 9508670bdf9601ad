package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

func TestUserService_ApproveFlow(t *testing.T) {
	store := newMemStore()
	cache := NewUserCache(100, time.Minute)
	users := NewUserService(store, cache, testLogger())
	auth := NewAuthService(store, plainHasher{}, &mockIssuer{}, cache, testLogger())
	ctx := context.Background()

	admin := seedUser(store, "admin", "admin@example.com", rbac.RoleAdmin, true)
	pendingID := "8d3c9d51-2d4e-4c1f-b0a4-5d1f0f6b2a11"
	seedUser(store, pendingID, "new@example.com", rbac.RoleEditor, false)

	pending, err := users.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != pendingID {
		t.Fatalf("ожидающие = %+v", pending)
	}

	// Заполняем кэш неодобренным состоянием.
	if _, err := auth.CurrentUser(ctx, pendingID); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("до одобрения: %v", err)
	}

	if err := users.Approve(ctx, admin, pendingID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	u, err := auth.CurrentUser(ctx, pendingID)
	if err != nil {
		t.Fatalf("после одобрения: %v", err)
	}
	if !u.Approved || u.ApprovedBy == nil || *u.ApprovedBy != admin.ID {
		t.Errorf("пользователь = %+v", u)
	}

	pending, _ = users.ListPending(ctx)
	if len(pending) != 0 {
		t.Errorf("ожидающих = %d, хотели 0", len(pending))
	}
	all, _ := users.List(ctx)
	if len(all) != 2 {
		t.Errorf("всего пользователей = %d, хотели 2", len(all))
	}

	if len(store.audit) != 1 {
		t.Fatalf("записей аудита = %d", len(store.audit))
	}
	e := store.audit[0]
	if e.Action != model.ActionApprove || e.EntityID != pendingID || e.Changes["approved"] != true {
		t.Errorf("аудит = %+v", e)
	}
}

func TestUserService_ApproveNotFound(t *testing.T) {
	store := newMemStore()
	users := NewUserService(store, nil, testLogger())
	admin := seedUser(store, "admin", "admin@example.com", rbac.RoleAdmin, true)

	for _, id := range []string{"bad", "8d3c9d51-2d4e-4c1f-b0a4-5d1f0f6b2a11"} {
		if err := users.Approve(context.Background(), admin, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Approve(%q): ожидали ErrNotFound, получили %v", id, err)
		}
	}
	if len(store.audit) != 0 {
		t.Errorf("аудит записан для несуществующего пользователя")
	}
}

func TestAuditService_List(t *testing.T) {
	store := newMemStore()
	svc := NewAuditService(store, testLogger())
	ctx := context.Background()

	if _, err := svc.List(ctx, "robot", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("неизвестный entity_type: ожидали ErrValidation, получили %v", err)
	}

	actor := seedUser(store, "a", "a@example.com", rbac.RoleAdmin, true)
	r := store.Repos()
	for _, et := range []string{model.EntityProduct, model.EntityUser, model.EntityProduct} {
		if err := appendAudit(ctx, r, actor, et, "id-"+et, model.ActionCreate, nil); err != nil {
			t.Fatalf("appendAudit: %v", err)
		}
	}

	all, err := svc.List(ctx, "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("записей = %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Timestamp.After(all[i-1].Timestamp) {
			t.Errorf("нарушен порядок по убыванию времени на позиции %d", i)
		}
	}

	products, _ := svc.List(ctx, model.EntityProduct, "")
	if len(products) != 2 {
		t.Errorf("записей product = %d, хотели 2", len(products))
	}
}
