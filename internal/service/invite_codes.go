package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
	"github.com/bigkaa/pavian-registry/internal/repository"
)

// Значения по умолчанию для генерации invite-кода.
const (
	DefaultInviteMaxUses      = 1
	DefaultInviteExpiresHours = 168
)

// Сообщения публичной проверки кода (формат ответа фронтенда).
const (
	msgInvalidCode = "Invalid code"
	msgCodeExpired = "Code expired"
	msgCodeUsed    = "Code already used"
)

// GenerateInviteCodeRequest — параметры нового invite-кода.
// Отсутствующие max_uses/expires_hours заменяются значениями по умолчанию.
type GenerateInviteCodeRequest struct {
	RoleAssigned string `json:"role_assigned" validate:"required"`
	MaxUses      *int   `json:"max_uses" validate:"omitempty,min=1"`
	ExpiresHours *int   `json:"expires_hours" validate:"omitempty,min=1"`
}

// InviteCodeService — генерация, список и проверка invite-кодов.
type InviteCodeService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewInviteCodeService создаёт сервис invite-кодов.
func NewInviteCodeService(store repository.Store, logger *slog.Logger) *InviteCodeService {
	return &InviteCodeService{
		store:  store,
		logger: logger.With(slog.String("component", "invite_code_service")),
		now:    time.Now,
	}
}

// Validate — публичная проверка пригодности кода. Отсутствие кода,
// истечение и исчерпание — обычный ответ valid=false, не ошибка.
func (s *InviteCodeService) Validate(ctx context.Context, code string) (*model.InviteCodeValidation, error) {
	code = strings.TrimSpace(code)
	if len(code) < model.MinInviteCodeLength {
		return &model.InviteCodeValidation{Valid: false, Message: msgInvalidCode}, nil
	}

	c, err := s.store.Repos().InviteCodes.Get(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.InviteCodeValidation{Valid: false, Message: msgInvalidCode}, nil
		}
		return nil, fmt.Errorf("проверка invite-кода: %w", err)
	}

	switch c.State(s.now()) {
	case model.InviteCodeExpired:
		return &model.InviteCodeValidation{Valid: false, Message: msgCodeExpired}, nil
	case model.InviteCodeExhausted:
		return &model.InviteCodeValidation{Valid: false, Message: msgCodeUsed}, nil
	default:
		return &model.InviteCodeValidation{Valid: true, Role: c.RoleAssigned}, nil
	}
}

// List возвращает все invite-коды.
func (s *InviteCodeService) List(ctx context.Context) ([]*model.InviteCode, error) {
	codes, err := s.store.Repos().InviteCodes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список invite-кодов: %w", err)
	}
	return codes, nil
}

// Generate создаёт invite-код от имени actor и пишет запись аудита.
func (s *InviteCodeService) Generate(ctx context.Context, actor *model.User, req GenerateInviteCodeRequest) (*model.InviteCode, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !rbac.IsValidRole(req.RoleAssigned) {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrInvalidRole)
	}

	maxUses := DefaultInviteMaxUses
	if req.MaxUses != nil {
		maxUses = *req.MaxUses
	}
	expiresHours := DefaultInviteExpiresHours
	if req.ExpiresHours != nil {
		expiresHours = *req.ExpiresHours
	}

	value, err := newInviteCode()
	if err != nil {
		return nil, err
	}

	code := &model.InviteCode{
		Code:         value,
		CreatedBy:    actor.ID,
		RoleAssigned: req.RoleAssigned,
		ExpiresAt:    s.now().Add(time.Duration(expiresHours) * time.Hour),
		MaxUses:      maxUses,
	}

	err = s.store.InTx(ctx, func(r repository.Repos) error {
		if err := r.InviteCodes.Create(ctx, code); err != nil {
			return mapRepoErr(err)
		}
		return appendAudit(ctx, r, actor, model.EntityInviteCode, code.Code, model.ActionCreate,
			map[string]any{"role": code.RoleAssigned})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создан invite-код",
		slog.String("role", code.RoleAssigned),
		slog.Int("max_uses", code.MaxUses),
		slog.String("created_by", actor.ID),
	)
	return code, nil
}
