// Пакет database — пул PostgreSQL (pgxpool), миграции схемы
// (golang-migrate, SQL в embed FS) и проверка готовности для /health/ready.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/pavian-registry/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Connect открывает пул с лимитами из конфигурации и проверяет связь.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("разбор DSN: %w", err)
	}
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.DBConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("создание пула: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("PostgreSQL недоступен: %w", err)
	}

	logger.Info("PostgreSQL подключён",
		slog.String("db", cfg.DatabaseURL()),
		slog.Int("max_conns", int(poolCfg.MaxConns)),
	)
	return pool, nil
}

// SQLDB оборачивает пул в *sql.DB для pgcheck.
func SQLDB(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDBFromPool(pool)
}

// Migrate доводит схему до последней версии.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("Схема актуальна")
	case err != nil:
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("версия схемы: %w", verr)
	}
	if dirty {
		return fmt.Errorf("схема в состоянии dirty (версия %d), нужна ручная правка", version)
	}
	logger.Info("Миграции применены", slog.Uint64("version", uint64(version)))
	return nil
}

// Pinger — то, что умеет ping (pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessChecker пингует PostgreSQL с таймаутом.
type ReadinessChecker struct {
	db      Pinger
	timeout time.Duration
}

func NewReadinessChecker(db Pinger) *ReadinessChecker {
	return &ReadinessChecker{db: db, timeout: 3 * time.Second}
}

// CheckReady возвращает "ok" или "fail" с пояснением.
func (c *ReadinessChecker) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	started := time.Now()
	if err := c.db.Ping(ctx); err != nil {
		return "fail", "PostgreSQL недоступен: " + err.Error()
	}
	return "ok", fmt.Sprintf("ping %s", time.Since(started).Round(time.Millisecond))
}
