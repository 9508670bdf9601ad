package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bigkaa/pavian-registry/internal/database"
)

// TestNewDephealthService проверяет сборку сервиса без обращения к БД:
// pgxpool.New не устанавливает соединение до первого запроса.
func TestNewDephealthService(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://pr:pr@127.0.0.1:1/pr?sslmode=disable")
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	defer pool.Close()

	db := database.SQLDB(pool)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	ds, err := NewDephealthService(DephealthConfig{
		ServiceID:  "pavian-registry",
		Group:      "pavian",
		DB:         db,
		DBURL:      "postgres://127.0.0.1:1/pr",
		Interval:   15 * time.Second,
		Registerer: reg,
	}, logger)
	if err != nil {
		t.Fatalf("NewDephealthService: %v", err)
	}
	if ds == nil {
		t.Fatal("ожидался не-nil сервис")
	}
}

func TestNewDephealthService_NoDB(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewDephealthService(DephealthConfig{ServiceID: "pavian-registry", Group: "pavian"}, logger); err == nil {
		t.Fatal("ожидалась ошибка без *sql.DB")
	}
}
