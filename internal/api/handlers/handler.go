// handler.go — обработчики REST API PAVIAN Registry.
// APIHandler делегирует запросы в сервисный слой; маршруты и проверка
// прав (RequireCapability) настраиваются в пакете server.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/pavian-registry/internal/api/errors"
	"github.com/bigkaa/pavian-registry/internal/api/middleware"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/service"
)

// maxBodyBytes — ограничение размера тела запроса.
const maxBodyBytes = 1 << 20

// AuthAPI — операции аутентификации (service.AuthService).
type AuthAPI interface {
	Login(ctx context.Context, req service.LoginRequest) (*service.LoginResult, error)
	Register(ctx context.Context, req service.RegisterRequest) (*model.User, error)
	InitAdmin(ctx context.Context) (*service.InitAdminResult, error)
}

// InviteCodeAPI — операции с invite-кодами (service.InviteCodeService).
type InviteCodeAPI interface {
	Validate(ctx context.Context, code string) (*model.InviteCodeValidation, error)
	List(ctx context.Context) ([]*model.InviteCode, error)
	Generate(ctx context.Context, actor *model.User, req service.GenerateInviteCodeRequest) (*model.InviteCode, error)
}

// ProductAPI — операции с оборудованием (service.ProductService).
type ProductAPI interface {
	List(ctx context.Context) ([]*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, actor *model.User, data model.ProductData) (*model.Product, error)
	Update(ctx context.Context, actor *model.User, id string, patch model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

// UserAPI — управление пользователями (service.UserService).
type UserAPI interface {
	List(ctx context.Context) ([]*model.User, error)
	ListPending(ctx context.Context) ([]*model.User, error)
	Approve(ctx context.Context, actor *model.User, id string) error
}

// AuditAPI — чтение журнала аудита (service.AuditService).
type AuditAPI interface {
	List(ctx context.Context, entityType, entityID string) ([]*model.AuditLogEntry, error)
}

// JWKSProvider — публичные ключи проверки токенов (auth.TokenIssuer).
type JWKSProvider interface {
	JWKS(ctx context.Context) (json.RawMessage, error)
}

// APIHandler — основной обработчик REST API.
type APIHandler struct {
	health   *HealthHandler
	auth     AuthAPI
	invites  InviteCodeAPI
	products ProductAPI
	users    UserAPI
	audit    AuditAPI
	jwks     JWKSProvider
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	auth AuthAPI,
	invites InviteCodeAPI,
	products ProductAPI,
	users UserAPI,
	audit AuditAPI,
	jwks JWKSProvider,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:   health,
		auth:     auth,
		invites:  invites,
		products: products,
		users:    users,
		audit:    audit,
		jwks:     jwks,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetJWKS — GET /api/v1/.well-known/jwks.json.
func (h *APIHandler) GetJWKS(w http.ResponseWriter, r *http.Request) {
	data, err := h.jwks.JWKS(r.Context())
	if err != nil {
		h.logger.Error("Ошибка формирования JWKS", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Ошибка формирования JWKS")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// --- Вспомогательные функции ---

// messageResponse — ответ с текстовым сообщением.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("пустое тело запроса")
		}
		return fmt.Errorf("некорректный JSON: %w", err)
	}
	return nil
}

// nonNil заменяет nil-срез пустым, чтобы в JSON уходил [].
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// currentUser возвращает пользователя из контекста или пишет 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return nil, false
	}
	return u, true
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrInvalidInviteCode),
		errors.Is(err, service.ErrInviteCodeExpired),
		errors.Is(err, service.ErrInviteCodeUsed):
		apierrors.InvalidInviteCode(w, err.Error())
	case errors.Is(err, service.ErrAdminExists):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.InvalidCredentials(w, err.Error())
	case errors.Is(err, service.ErrNotApproved):
		apierrors.NotApproved(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	default:
		h.logger.Error("Внутренняя ошибка обработки запроса",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка")
	}
}
