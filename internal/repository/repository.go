// Пакет repository — доступ к PostgreSQL чистым SQL через pgx.
// Репозитории не знают, работают ли они на пуле или внутри транзакции.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound — строки нет.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — нарушено ограничение уникальности.
	ErrConflict = errors.New("запись уже существует")
)

// DBTX — общее подмножество *pgxpool.Pool и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repos — репозитории поверх одного DBTX.
type Repos struct {
	Users       UserRepository
	InviteCodes InviteCodeRepository
	Products    ProductRepository
	AuditLogs   AuditLogRepository
}

// NewRepos привязывает все репозитории к db.
func NewRepos(db DBTX) Repos {
	return Repos{
		Users:       NewUserRepository(db),
		InviteCodes: NewInviteCodeRepository(db),
		Products:    NewProductRepository(db),
		AuditLogs:   NewAuditLogRepository(db),
	}
}

// Store — вход сервисного слоя в хранилище. Мутация и её запись
// аудита выполняются в одном InTx.
type Store interface {
	Repos() Repos
	// InTx коммитит, если fn вернула nil, иначе откатывает.
	InTx(ctx context.Context, fn func(r Repos) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore создаёт Store поверх пула.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Repos() Repos { return NewRepos(s.pool) }

func (s *pgStore) InTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // после Commit — no-op

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("коммит транзакции: %w", err)
	}
	return nil
}

// isUniqueViolation — SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
