// Точка входа PAVIAN Registry — реестр оборудования PAVIAN.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт издателя JWT, сервисный слой и API handlers, запускает
// мониторинг зависимостей и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/pavian-registry/internal/api/handlers"
	"github.com/bigkaa/pavian-registry/internal/api/middleware"
	"github.com/bigkaa/pavian-registry/internal/auth"
	"github.com/bigkaa/pavian-registry/internal/config"
	"github.com/bigkaa/pavian-registry/internal/database"
	"github.com/bigkaa/pavian-registry/internal/repository"
	"github.com/bigkaa/pavian-registry/internal/server"
	"github.com/bigkaa/pavian-registry/internal/service"
)

func main() {
	// 1. Конфигурация
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("PAVIAN Registry запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("PR_DEPHEALTH_GROUP") == "" {
		logger.Warn("PR_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Миграции
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. PostgreSQL
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	pgDB := database.SQLDB(pool)
	defer pgDB.Close()

	// 5. Ключ и издатель JWT
	key, err := auth.LoadOrGenerateKey(cfg.JWTPrivateKeyPath, logger)
	if err != nil {
		logger.Error("Ошибка загрузки ключа JWT", slog.String("error", err.Error()))
		os.Exit(1)
	}
	issuer, err := auth.NewTokenIssuer(ctx, key, cfg.JWTKeyID, cfg.JWTIssuer, cfg.JWTTokenTTL)
	if err != nil {
		logger.Error("Ошибка создания издателя JWT", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Сервисы
	store := repository.NewStore(pool)
	userCache := service.NewUserCache(cfg.UserCacheSize, cfg.UserCacheTTL)

	authSvc := service.NewAuthService(store, auth.NewPasswordHasher(cfg.BcryptCost), issuer, userCache, logger)
	inviteSvc := service.NewInviteCodeService(store, logger)
	productSvc := service.NewProductService(store, logger)
	userSvc := service.NewUserService(store, userCache, logger)
	auditSvc := service.NewAuditService(store, logger)

	// 7. topologymetrics
	var deps handlers.DependencyReporter
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID: "pavian-registry",
		Group:     cfg.DephealthGroup,
		DB:        pgDB,
		DBURL:     cfg.DatabaseURL(),
		Interval:  cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
	} else {
		defer dephealthSvc.Stop()
		deps = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 8. Handlers, JWT middleware, сервер
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), deps)
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		authSvc,
		inviteSvc,
		productSvc,
		userSvc,
		auditSvc,
		issuer,
		logger,
	)
	jwtAuth := middleware.NewJWTAuth(issuer.Keyfunc(), issuer.Issuer(), cfg.JWTLeeway, authSvc, logger)

	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Сервер завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
