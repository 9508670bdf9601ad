package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// UserRepository — интерфейс CRUD для таблицы users.
type UserRepository interface {
	// Create создаёт пользователя. Дубликат email → ErrConflict.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по UUID.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail возвращает пользователя по email (вместе с хешем пароля).
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// List возвращает пользователей; approved=nil — всех.
	List(ctx context.Context, approved *bool) ([]*model.User, error)
	// Approve отмечает пользователя одобренным.
	Approve(ctx context.Context, id, approvedBy string) error
	// ExistsWithRole — есть ли хотя бы один пользователь с ролью.
	ExistsWithRole(ctx context.Context, role string) (bool, error)
}

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, email, name, role, approved, approved_by, password_hash, created_at`

// scanUser сканирует строку результата в модель User.
func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Approved, &u.ApprovedBy, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, email, name, role, approved, approved_by, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.Email, u.Name, u.Role, u.Approved, u.ApprovedBy, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s уже зарегистрирован", ErrConflict, u.Email)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя по email: %w", err)
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context, approved *bool) ([]*model.User, error) {
	var args []any
	where := ""
	if approved != nil {
		where = "WHERE approved = $1"
		args = append(args, *approved)
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC`, userColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	result := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *userRepo) Approve(ctx context.Context, id, approvedBy string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET approved = TRUE, approved_by = $2 WHERE id = $1`,
		id, approvedBy,
	)
	if err != nil {
		return fmt.Errorf("ошибка одобрения пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) ExistsWithRole(ctx context.Context, role string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, role,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки роли: %w", err)
	}
	return exists, nil
}
