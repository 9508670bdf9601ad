package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthConfig — параметры мониторинга PostgreSQL через topologymetrics.
// Метрики app_dependency_health и app_dependency_latency_seconds
// попадают на общий /metrics.
type DephealthConfig struct {
	// ServiceID — имя вершины графа
	ServiceID string
	// Group — PR_DEPHEALTH_GROUP
	Group string
	// DB — *sql.DB поверх пула (database.SQLDB)
	DB *sql.DB
	// DBURL — URL PostgreSQL без пароля, для лейблов
	DBURL string
	// Interval — период проверки
	Interval time.Duration
	// Registerer — nil означает глобальный registry
	Registerer prometheus.Registerer
}

// DephealthService периодически проверяет PostgreSQL (критичная зависимость).
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService собирает монитор; соединений не открывает.
func NewDephealthService(cfg DephealthConfig, logger *slog.Logger) (*DephealthService, error) {
	if cfg.DB == nil {
		return nil, errors.New("dephealth: не задан *sql.DB")
	}

	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(cfg.DB)),
			dephealth.FromURL(cfg.DBURL),
			dephealth.CheckInterval(cfg.Interval),
			dephealth.Critical(true),
		),
	}
	if cfg.Registerer != nil {
		opts = append(opts, dephealth.WithRegisterer(cfg.Registerer))
	}

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, opts...)
	if err != nil {
		return nil, err
	}
	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

func (s *DephealthService) Start(ctx context.Context) error {
	s.logger.Info("Мониторинг PostgreSQL запущен")
	return s.dh.Start(ctx)
}

func (s *DephealthService) Stop() {
	s.dh.Stop()
	s.logger.Info("Мониторинг PostgreSQL остановлен")
}

// Health — последний результат по каждой зависимости.
func (s *DephealthService) Health() map[string]bool {
	return s.dh.Health()
}
