package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/repository"
)

// AuditService — чтение журнала аудита.
type AuditService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewAuditService создаёт сервис журнала аудита.
func NewAuditService(store repository.Store, logger *slog.Logger) *AuditService {
	return &AuditService{
		store:  store,
		logger: logger.With(slog.String("component", "audit_service")),
	}
}

// List возвращает записи журнала, новые первыми.
// Пустой entityType/entityID — без фильтра.
func (s *AuditService) List(ctx context.Context, entityType, entityID string) ([]*model.AuditLogEntry, error) {
	if entityType != "" && !model.IsValidEntityType(entityType) {
		return nil, fmt.Errorf("%w: неизвестный entity_type %q", ErrValidation, entityType)
	}

	entries, err := s.store.Repos().AuditLogs.List(ctx, repository.AuditLogFilter{
		EntityType: entityType,
		EntityID:   entityID,
	})
	if err != nil {
		return nil, fmt.Errorf("чтение журнала аудита: %w", err)
	}
	return entries, nil
}

// appendAudit пишет запись аудита через репозитории текущей транзакции.
func appendAudit(
	ctx context.Context,
	r repository.Repos,
	actor *model.User,
	entityType, entityID, action string,
	changes map[string]any,
) error {
	entry := &model.AuditLogEntry{
		ID:          uuid.New().String(),
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Changes:     changes,
		PerformedBy: actor.ID,
		UserName:    actor.Name,
		UserEmail:   actor.Email,
	}
	if err := r.AuditLogs.Append(ctx, entry); err != nil {
		return fmt.Errorf("запись аудита %s/%s: %w", entityType, action, err)
	}
	return nil
}

// mapRepoErr переводит ошибки репозитория в ошибки сервисного слоя.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}
