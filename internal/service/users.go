package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/repository"
)

// UserService — управление пользователями (список, одобрение).
type UserService struct {
	store  repository.Store
	cache  *UserCache
	logger *slog.Logger
}

// NewUserService создаёт сервис пользователей.
// cache — тот же кэш, что у AuthService (может быть nil).
func NewUserService(store repository.Store, cache *UserCache, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

// List возвращает всех пользователей.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.Repos().Users.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("список пользователей: %w", err)
	}
	return users, nil
}

// ListPending возвращает пользователей, ожидающих одобрения.
func (s *UserService) ListPending(ctx context.Context) ([]*model.User, error) {
	pending := false
	users, err := s.store.Repos().Users.List(ctx, &pending)
	if err != nil {
		return nil, fmt.Errorf("список ожидающих пользователей: %w", err)
	}
	return users, nil
}

// Approve одобряет пользователя от имени actor и пишет запись аудита.
func (s *UserService) Approve(ctx context.Context, actor *model.User, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: пользователь %s", ErrNotFound, id)
	}

	err := s.store.InTx(ctx, func(r repository.Repos) error {
		if err := r.Users.Approve(ctx, id, actor.ID); err != nil {
			return mapRepoErr(err)
		}
		return appendAudit(ctx, r, actor, model.EntityUser, id, model.ActionApprove,
			map[string]any{"approved": true})
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Delete(id)
	}

	s.logger.Info("Пользователь одобрен",
		slog.String("user_id", id),
		slog.String("approved_by", actor.ID),
	)
	return nil
}
