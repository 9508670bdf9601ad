// Пакет middleware — HTTP middleware REST API: JWT-аутентификация,
// проверка capability по таблице rbac, CORS, логирование и метрики.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/pavian-registry/internal/api/errors"
	"github.com/bigkaa/pavian-registry/internal/auth"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
	"github.com/bigkaa/pavian-registry/internal/service"
)

type contextKey struct{}

// userKey — текущий пользователь в контексте запроса.
var userKey contextKey

// UserResolver — получение актуального пользователя по sub из токена.
// Реализуется service.AuthService.
type UserResolver interface {
	CurrentUser(ctx context.Context, id string) (*model.User, error)
}

// JWTAuth проверяет Bearer-токен и кладёт в контекст актуального пользователя.
type JWTAuth struct {
	kf     keyfunc.Keyfunc
	parser *jwt.Parser
	users  UserResolver
	logger *slog.Logger
}

// NewJWTAuth: kf — keyfunc издателя (auth.TokenIssuer.Keyfunc),
// пустой issuer отключает проверку iss.
func NewJWTAuth(
	kf keyfunc.Keyfunc,
	issuer string,
	leeway time.Duration,
	users UserResolver,
	logger *slog.Logger,
) *JWTAuth {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTAuth{
		kf:     kf,
		parser: jwt.NewParser(opts...),
		users:  users,
		logger: logger.With(slog.String("component", "jwt_auth")),
	}
}

// bearerToken достаёт токен из Authorization; при ошибке возвращает
// сообщение для 401.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "Отсутствует заголовок Authorization"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "Неверный формат Authorization: ожидается Bearer <token>"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "Пустой Bearer token"
	}
	return token, ""
}

// Middleware: удалённый пользователь → 401, неодобренный → 403 NOT_APPROVED.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, problem := bearerToken(r)
			if problem != "" {
				apierrors.Unauthorized(w, problem)
				return
			}

			claims := &auth.Claims{}
			if _, err := j.parser.ParseWithClaims(raw, claims, j.kf.KeyfuncCtx(r.Context())); err != nil {
				j.logger.Debug("Токен отклонён",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			subject, _ := claims.GetSubject()
			if subject == "" {
				apierrors.Unauthorized(w, "Отсутствует sub в токене")
				return
			}

			user, err := j.users.CurrentUser(r.Context(), subject)
			switch {
			case errors.Is(err, service.ErrNotFound):
				apierrors.Unauthorized(w, "Пользователь не найден")
				return
			case errors.Is(err, service.ErrNotApproved):
				apierrors.NotApproved(w, "Учётная запись ожидает одобрения администратором")
				return
			case err != nil:
				j.logger.Error("Не удалось получить пользователя",
					slog.String("user_id", subject),
					slog.String("error", err.Error()),
				)
				apierrors.InternalError(w, "Внутренняя ошибка")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireCapability возвращает middleware, пропускающий только роли,
// которым таблица rbac разрешает key.
// Должен использоваться ПОСЛЕ JWTAuth.Middleware().
func RequireCapability(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				apierrors.Unauthorized(w, "Отсутствует пользователь в контексте")
				return
			}

			if !rbac.CanAccess(user.Role, key) {
				apierrors.Forbidden(w, "Недостаточно прав: "+key)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// --- Context helpers ---

// ContextWithUser помещает пользователя в контекст.
func ContextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext извлекает текущего пользователя.
// Возвращает nil, если пользователь не найден.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}
