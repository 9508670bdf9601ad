package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// AuditLogFilter — фильтры выборки журнала аудита (пустое значение — без фильтра).
type AuditLogFilter struct {
	EntityType string
	EntityID   string
}

// AuditLogRepository — журнал аудита, только добавление и чтение.
type AuditLogRepository interface {
	// Append добавляет запись.
	Append(ctx context.Context, e *model.AuditLogEntry) error
	// List возвращает записи по фильтру, новые первыми.
	List(ctx context.Context, filter AuditLogFilter) ([]*model.AuditLogEntry, error)
}

// auditLogRepo — реализация AuditLogRepository.
type auditLogRepo struct {
	db DBTX
}

// NewAuditLogRepository создаёт репозиторий журнала аудита.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepo{db: db}
}

const auditColumns = `id, entity_type, entity_id, action, changes, performed_by,
	user_name, user_email, timestamp`

func (r *auditLogRepo) Append(ctx context.Context, e *model.AuditLogEntry) error {
	changes := e.Changes
	if changes == nil {
		changes = map[string]any{}
	}

	query := `
		INSERT INTO audit_logs (id, entity_type, entity_id, action, changes, performed_by, user_name, user_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING timestamp`

	err := r.db.QueryRow(ctx, query,
		e.ID, e.EntityType, e.EntityID, e.Action, changes, e.PerformedBy, e.UserName, e.UserEmail,
	).Scan(&e.Timestamp)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал аудита: %w", err)
	}
	e.Changes = changes
	return nil
}

func (r *auditLogRepo) List(ctx context.Context, filter AuditLogFilter) ([]*model.AuditLogEntry, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.EntityType != "" {
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", argNum))
		args = append(args, filter.EntityType)
		argNum++
	}
	if filter.EntityID != "" {
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", argNum))
		args = append(args, filter.EntityID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM audit_logs %s ORDER BY timestamp DESC`, auditColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала аудита: %w", err)
	}
	defer rows.Close()

	result := make([]*model.AuditLogEntry, 0)
	for rows.Next() {
		e := &model.AuditLogEntry{}
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.Changes, &e.PerformedBy,
			&e.UserName, &e.UserEmail, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи аудита: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
