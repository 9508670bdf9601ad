package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// InviteCodeRepository — интерфейс для таблицы invite_codes.
type InviteCodeRepository interface {
	// Create сохраняет новый код.
	Create(ctx context.Context, c *model.InviteCode) error
	// Get возвращает код по значению.
	Get(ctx context.Context, code string) (*model.InviteCode, error)
	// GetForUpdate возвращает код с блокировкой строки (только внутри транзакции).
	GetForUpdate(ctx context.Context, code string) (*model.InviteCode, error)
	// List возвращает все коды, новые первыми.
	List(ctx context.Context) ([]*model.InviteCode, error)
	// MarkUsed увеличивает used_count и добавляет пользователя в used_by.
	MarkUsed(ctx context.Context, code, userID string) error
}

// inviteCodeRepo — реализация InviteCodeRepository.
type inviteCodeRepo struct {
	db DBTX
}

// NewInviteCodeRepository создаёт репозиторий invite-кодов.
func NewInviteCodeRepository(db DBTX) InviteCodeRepository {
	return &inviteCodeRepo{db: db}
}

const inviteColumns = `code, COALESCE(created_by::text, ''), role_assigned, created_at,
	expires_at, max_uses, used_count, used_by::text[]`

func scanInviteCode(row pgx.Row) (*model.InviteCode, error) {
	c := &model.InviteCode{}
	err := row.Scan(&c.Code, &c.CreatedBy, &c.RoleAssigned, &c.CreatedAt,
		&c.ExpiresAt, &c.MaxUses, &c.UsedCount, &c.UsedBy)
	if c.UsedBy == nil {
		c.UsedBy = []string{}
	}
	return c, err
}

func (r *inviteCodeRepo) Create(ctx context.Context, c *model.InviteCode) error {
	query := `
		INSERT INTO invite_codes (code, created_by, role_assigned, expires_at, max_uses)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5)
		RETURNING created_at, used_count`

	err := r.db.QueryRow(ctx, query,
		c.Code, c.CreatedBy, c.RoleAssigned, c.ExpiresAt, c.MaxUses,
	).Scan(&c.CreatedAt, &c.UsedCount)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: invite-код уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания invite-кода: %w", err)
	}
	if c.UsedBy == nil {
		c.UsedBy = []string{}
	}
	return nil
}

func (r *inviteCodeRepo) get(ctx context.Context, code, suffix string) (*model.InviteCode, error) {
	query := fmt.Sprintf(`SELECT %s FROM invite_codes WHERE code = $1 %s`, inviteColumns, suffix)
	c, err := scanInviteCode(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения invite-кода: %w", err)
	}
	return c, nil
}

func (r *inviteCodeRepo) Get(ctx context.Context, code string) (*model.InviteCode, error) {
	return r.get(ctx, code, "")
}

func (r *inviteCodeRepo) GetForUpdate(ctx context.Context, code string) (*model.InviteCode, error) {
	return r.get(ctx, code, "FOR UPDATE")
}

func (r *inviteCodeRepo) List(ctx context.Context) ([]*model.InviteCode, error) {
	query := fmt.Sprintf(`SELECT %s FROM invite_codes ORDER BY created_at DESC`, inviteColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка invite-кодов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.InviteCode, 0)
	for rows.Next() {
		c, err := scanInviteCode(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования invite-кода: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *inviteCodeRepo) MarkUsed(ctx context.Context, code, userID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invite_codes
		SET used_count = used_count + 1, used_by = array_append(used_by, $2::uuid)
		WHERE code = $1`,
		code, userID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления invite-кода: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
