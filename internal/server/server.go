// Пакет server — HTTP-сервер PAVIAN Registry с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/pavian-registry/internal/api/handlers"
	"github.com/bigkaa/pavian-registry/internal/api/middleware"
	"github.com/bigkaa/pavian-registry/internal/config"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

// Server — HTTP-сервер PAVIAN Registry.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
// jwtAuth может быть nil — тогда защищённые маршруты отвечают 401.
func New(cfg *config.Config, logger *slog.Logger, h *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, h, jwtAuth),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер. Каждый защищённый маршрут закрыт
// capability из таблицы rbac.
func NewRouter(cfg *config.Config, logger *slog.Logger, h *handlers.APIHandler, jwtAuth *middleware.JWTAuth) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(middleware.CORS(cfg.CORSOrigins))
	}

	// Health и metrics — без аутентификации.
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		// Публичные маршруты.
		r.Get("/.well-known/jwks.json", h.GetJWKS)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/register", h.Register)
		r.Get("/invite-codes/validate/{code}", h.ValidateInviteCode)
		r.Post("/init-admin", h.InitAdmin)

		// Защищённые маршруты.
		r.Group(func(r chi.Router) {
			if jwtAuth != nil {
				r.Use(jwtAuth.Middleware())
			}
			can := middleware.RequireCapability

			r.Get("/auth/me", h.Me)

			r.With(can(rbac.ViewProducts)).Get("/products", h.ListProducts)
			r.With(can(rbac.ActionCreateProduct)).Post("/products", h.CreateProduct)
			r.With(can(rbac.ViewProductDetail)).Get("/products/{id}", h.GetProduct)
			r.With(can(rbac.ActionEditProduct)).Put("/products/{id}", h.UpdateProduct)
			r.With(can(rbac.ActionDeleteProduct)).Delete("/products/{id}", h.DeleteProduct)

			r.With(can(rbac.ViewAdminUsers)).Get("/users", h.ListUsers)
			r.With(can(rbac.ViewAdminUsers)).Get("/users/pending", h.ListPendingUsers)
			r.With(can(rbac.ActionApproveUser)).Post("/users/{id}/approve", h.ApproveUser)

			r.With(can(rbac.ViewAdminCodes)).Get("/invite-codes", h.ListInviteCodes)
			r.With(can(rbac.ActionGenerateCode)).Post("/invite-codes", h.GenerateInviteCode)
			r.With(can(rbac.ActionGenerateCode)).Post("/invite-codes/generate", h.GenerateInviteCode)

			r.With(can(rbac.ViewAuditLogs)).Get("/audit-logs", h.ListAuditLogs)
		})
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
