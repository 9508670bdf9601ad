package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

func newTestInviteService(store *memStore) *InviteCodeService {
	svc := NewInviteCodeService(store, testLogger())
	start := store.clock
	svc.now = func() time.Time { return start }
	return svc
}

func intPtr(v int) *int { return &v }

func TestInviteCodeService_Validate(t *testing.T) {
	store := newMemStore()
	svc := newTestInviteService(store)
	future := store.clock.Add(time.Hour)

	seedCode(t, store, "GOOD-CODE-1", rbac.RoleEditor, 3, 1, future)
	seedCode(t, store, "OLD-CODE-1", rbac.RoleUser, 3, 0, store.clock.Add(-time.Minute))
	seedCode(t, store, "FULL-CODE-1", rbac.RoleUser, 2, 2, future)
	// Истёк и исчерпан: сообщается истечение.
	seedCode(t, store, "BOTH-CODE-1", rbac.RoleUser, 1, 1, store.clock)

	tests := []struct {
		name string
		code string
		want model.InviteCodeValidation
	}{
		{name: "пригоден", code: "GOOD-CODE-1", want: model.InviteCodeValidation{Valid: true, Role: rbac.RoleEditor}},
		{name: "не существует", code: "MISSING-CODE", want: model.InviteCodeValidation{Message: "Invalid code"}},
		{name: "короткий", code: "abc", want: model.InviteCodeValidation{Message: "Invalid code"}},
		{name: "истёк", code: "OLD-CODE-1", want: model.InviteCodeValidation{Message: "Code expired"}},
		{name: "исчерпан", code: "FULL-CODE-1", want: model.InviteCodeValidation{Message: "Code already used"}},
		{name: "истёк и исчерпан", code: "BOTH-CODE-1", want: model.InviteCodeValidation{Message: "Code expired"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Validate(context.Background(), tt.code)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if *got != tt.want {
				t.Errorf("Validate(%q) = %+v, хотели %+v", tt.code, *got, tt.want)
			}
		})
	}
}

func TestInviteCodeService_Generate(t *testing.T) {
	store := newMemStore()
	svc := newTestInviteService(store)
	admin := seedUser(store, "admin", "admin@example.com", rbac.RoleAdmin, true)
	start := store.clock
	ctx := context.Background()

	t.Run("значения по умолчанию", func(t *testing.T) {
		code, err := svc.Generate(ctx, admin, GenerateInviteCodeRequest{RoleAssigned: rbac.RoleUser})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if code.MaxUses != DefaultInviteMaxUses {
			t.Errorf("MaxUses = %d", code.MaxUses)
		}
		if want := start.Add(168 * time.Hour); !code.ExpiresAt.Equal(want) {
			t.Errorf("ExpiresAt = %v, хотели %v", code.ExpiresAt, want)
		}
		if code.CreatedBy != admin.ID || len(code.Code) < model.MinInviteCodeLength {
			t.Errorf("код = %+v", code)
		}
	})

	t.Run("явные параметры", func(t *testing.T) {
		code, err := svc.Generate(ctx, admin, GenerateInviteCodeRequest{
			RoleAssigned: rbac.RoleEditor,
			MaxUses:      intPtr(5),
			ExpiresHours: intPtr(24),
		})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if code.MaxUses != 5 || code.RoleAssigned != rbac.RoleEditor {
			t.Errorf("код = %+v", code)
		}
		if want := start.Add(24 * time.Hour); !code.ExpiresAt.Equal(want) {
			t.Errorf("ExpiresAt = %v, хотели %v", code.ExpiresAt, want)
		}
	})

	invalid := []struct {
		name string
		req  GenerateInviteCodeRequest
	}{
		{name: "неизвестная роль", req: GenerateInviteCodeRequest{RoleAssigned: "superuser"}},
		{name: "пустая роль", req: GenerateInviteCodeRequest{}},
		{name: "max_uses = 0", req: GenerateInviteCodeRequest{RoleAssigned: rbac.RoleUser, MaxUses: intPtr(0)}},
		{name: "expires_hours < 0", req: GenerateInviteCodeRequest{RoleAssigned: rbac.RoleUser, ExpiresHours: intPtr(-1)}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Generate(ctx, admin, tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("ожидали ErrValidation, получили %v", err)
			}
		})
	}

	codes, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("кодов = %d, хотели 2", len(codes))
	}

	entries, _ := NewAuditService(store, testLogger()).List(ctx, model.EntityInviteCode, "")
	if len(entries) != 2 {
		t.Fatalf("записей аудита = %d, хотели 2", len(entries))
	}
	if entries[0].Changes["role"] != rbac.RoleEditor || entries[0].Action != model.ActionCreate {
		t.Errorf("последняя запись аудита = %+v", entries[0])
	}
}
