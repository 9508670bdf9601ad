package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// Сообщения локальной проверки.
const (
	msgShortInviteCode = "O código deve ter pelo menos 8 caracteres"
	msgRequiredFields  = "Preencha todos os campos obrigatórios"
)

// LoginResult — ответ POST /auth/login.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

// RegisterRequest — тело POST /auth/register.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}

// RegisterResult — ответ POST /auth/register.
type RegisterResult struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// GenerateInviteCodeRequest — тело POST /invite-codes/generate.
// Незаданные поля сервер заполняет значениями по умолчанию.
type GenerateInviteCodeRequest struct {
	RoleAssigned string `json:"role_assigned"`
	MaxUses      *int   `json:"max_uses,omitempty"`
	ExpiresHours *int   `json:"expires_hours,omitempty"`
}

// InitAdminResult — ответ POST /init-admin.
type InitAdminResult struct {
	Message          string `json:"message"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	SampleInviteCode string `json:"sample_invite_code"`
}

// AuditFilter — фильтр журнала аудита; пустые поля не применяются.
type AuditFilter struct {
	EntityType string
	EntityID   string
}

type messageResult struct {
	Message string `json:"message"`
}

// Login выполняет вход и сохраняет сессию.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, validationError(msgRequiredFields)
	}

	var res LoginResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      map[string]string{"email": email, "password": password},
		out:       &res,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	if res.User == nil || res.AccessToken == "" {
		return nil, &Error{Kind: KindRemote, Status: http.StatusOK, Message: "resposta inválida do servidor"}
	}

	if err := c.sessions.Set(session.Session{Token: res.AccessToken, User: *res.User}); err != nil {
		return nil, &Error{Kind: KindRemote, Message: "não foi possível salvar a sessão", Err: err}
	}
	c.logger.Info("Вход выполнен",
		slog.String("user_id", res.User.ID),
		slog.String("role", res.User.Role),
	)
	return &res, nil
}

// Logout сбрасывает сессию. Сервер не вызывается: токены не отзываются.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// Register регистрирует пользователя по invite-коду.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, validationError(msgRequiredFields)
	}
	if utf8.RuneCountInString(req.InviteCode) < model.MinInviteCodeLength {
		return nil, validationError(msgShortInviteCode)
	}

	var res RegisterResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/register",
		body:      req,
		out:       &res,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ValidateInviteCode проверяет код. Код короче 8 символов отклоняется
// без обращения к серверу.
func (c *Client) ValidateInviteCode(ctx context.Context, code string) (*model.InviteCodeValidation, error) {
	if utf8.RuneCountInString(code) < model.MinInviteCodeLength {
		return nil, validationError(msgShortInviteCode)
	}

	var res model.InviteCodeValidation
	err := c.do(ctx, request{
		method:    http.MethodGet,
		path:      "/invite-codes/validate/" + url.PathEscape(code),
		out:       &res,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// InitAdmin выполняет первичную инициализацию сервера.
func (c *Client) InitAdmin(ctx context.Context) (*InitAdminResult, error) {
	var res InitAdminResult
	err := c.do(ctx, request{method: http.MethodPost, path: "/init-admin", out: &res, anonymous: true})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Me возвращает текущего пользователя.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", out: &u}); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListInviteCodes возвращает все invite-коды.
func (c *Client) ListInviteCodes(ctx context.Context) ([]*model.InviteCode, error) {
	var codes []*model.InviteCode
	if err := c.do(ctx, request{method: http.MethodGet, path: "/invite-codes", out: &codes}); err != nil {
		return nil, err
	}
	return codes, nil
}

// GenerateInviteCode создаёт invite-код.
func (c *Client) GenerateInviteCode(ctx context.Context, req GenerateInviteCodeRequest) (*model.InviteCode, error) {
	if req.RoleAssigned == "" {
		return nil, validationError(msgRequiredFields)
	}

	var code model.InviteCode
	err := c.do(ctx, request{method: http.MethodPost, path: "/invite-codes/generate", body: req, out: &code})
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// ListProducts возвращает все продукты.
func (c *Client) ListProducts(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products", out: &products}); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct возвращает продукт по ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + url.PathEscape(id), out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct создаёт продукт.
func (c *Client) CreateProduct(ctx context.Context, data model.ProductData) (*model.Product, error) {
	if data.Tag == "" || data.NumPavian == "" {
		return nil, validationError(msgRequiredFields)
	}

	var p model.Product
	if err := c.do(ctx, request{method: http.MethodPost, path: "/products", body: data, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct применяет частичное обновление.
func (c *Client) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	var p model.Product
	err := c.do(ctx, request{method: http.MethodPut, path: "/products/" + url.PathEscape(id), body: patch, out: &p})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct удаляет продукт.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	var res messageResult
	return c.do(ctx, request{method: http.MethodDelete, path: "/products/" + url.PathEscape(id), out: &res})
}

// ListUsers возвращает всех пользователей.
func (c *Client) ListUsers(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users", out: &users}); err != nil {
		return nil, err
	}
	return users, nil
}

// ListPendingUsers возвращает пользователей, ожидающих одобрения.
func (c *Client) ListPendingUsers(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/pending", out: &users}); err != nil {
		return nil, err
	}
	return users, nil
}

// ApproveUser одобряет пользователя.
func (c *Client) ApproveUser(ctx context.Context, id string) error {
	var res messageResult
	return c.do(ctx, request{method: http.MethodPost, path: "/users/" + url.PathEscape(id) + "/approve", out: &res})
}

// ListAuditLogs возвращает журнал аудита, новые записи первыми.
func (c *Client) ListAuditLogs(ctx context.Context, f AuditFilter) ([]*model.AuditLogEntry, error) {
	q := url.Values{}
	if f.EntityType != "" {
		q.Set("entity_type", f.EntityType)
	}
	if f.EntityID != "" {
		q.Set("entity_id", f.EntityID)
	}
	p := "/audit-logs"
	if len(q) > 0 {
		p += "?" + q.Encode()
	}

	var entries []*model.AuditLogEntry
	if err := c.do(ctx, request{method: http.MethodGet, path: p, out: &entries}); err != nil {
		return nil, err
	}
	return entries, nil
}
