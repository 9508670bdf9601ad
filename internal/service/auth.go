package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
	"github.com/bigkaa/pavian-registry/internal/repository"
)

// Учётные данные и invite-код, создаваемые init-admin.
const (
	InitAdminEmail    = "admin@system.com"
	InitAdminPassword = "admin123"
	InitAdminName     = "System Administrator"

	initInviteMaxUses = 10
	initInviteTTL     = 30 * 24 * time.Hour
)

// TokenIssuer — выпуск access token (реализуется auth.TokenIssuer).
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}

// PasswordHasher — хеширование и проверка паролей (реализуется auth.PasswordHasher).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// LoginRequest — запрос входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

// RegisterRequest — запрос регистрации по invite-коду.
type RegisterRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	InviteCode string `json:"invite_code" validate:"required,min=8"`
}

// InitAdminResult — результат первичной инициализации.
type InitAdminResult struct {
	Message          string `json:"message"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	SampleInviteCode string `json:"sample_invite_code"`
}

// AuthService — вход, регистрация, текущий пользователь, init-admin.
type AuthService struct {
	store  repository.Store
	hasher PasswordHasher
	tokens TokenIssuer
	cache  *UserCache
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService создаёт сервис аутентификации.
// cache может быть nil — тогда пользователь читается из БД на каждый запрос.
func NewAuthService(
	store repository.Store,
	hasher PasswordHasher,
	tokens TokenIssuer,
	cache *UserCache,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		cache:  cache,
		logger: logger.With(slog.String("component", "auth_service")),
		now:    time.Now,
	}
}

// normalizeEmail приводит email к каноническому виду.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login проверяет учётные данные и выпускает access token.
// Неодобренный пользователь получает ErrNotApproved.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	u, err := s.store.Repos().Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	if err := s.hasher.Verify(u.PasswordHash, req.Password); err != nil {
		s.logger.Info("Неудачная попытка входа", slog.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}

	if !u.Approved {
		return nil, ErrNotApproved
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("выпуск токена: %w", err)
	}

	s.logger.Info("Пользователь вошёл",
		slog.String("user_id", u.ID),
		slog.String("role", u.Role),
	)

	return &LoginResult{AccessToken: token, TokenType: "bearer", User: u}, nil
}

// Register создаёт неодобренного пользователя с ролью из invite-кода.
// Проверка кода, создание пользователя, инкремент used_count и запись
// аудита выполняются в одной транзакции с блокировкой строки кода.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.InviteCode = strings.TrimSpace(req.InviteCode)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	var created *model.User
	err = s.store.InTx(ctx, func(r repository.Repos) error {
		if _, err := r.Users.GetByEmail(ctx, req.Email); err == nil {
			return fmt.Errorf("%w: email %s уже зарегистрирован", ErrConflict, req.Email)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		code, err := r.InviteCodes.GetForUpdate(ctx, req.InviteCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidInviteCode
			}
			return err
		}

		switch code.State(s.now()) {
		case model.InviteCodeExpired:
			return ErrInviteCodeExpired
		case model.InviteCodeExhausted:
			return ErrInviteCodeUsed
		}

		u := &model.User{
			ID:           uuid.New().String(),
			Email:        req.Email,
			Name:         req.Name,
			Role:         code.RoleAssigned,
			PasswordHash: hash,
		}
		if err := r.Users.Create(ctx, u); err != nil {
			return mapRepoErr(err)
		}
		if err := r.InviteCodes.MarkUsed(ctx, code.Code, u.ID); err != nil {
			return err
		}
		if err := appendAudit(ctx, r, u, model.EntityUser, u.ID, model.ActionCreate, map[string]any{
			"role":        u.Role,
			"invite_code": code.Code,
		}); err != nil {
			return err
		}

		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Пользователь зарегистрирован, ожидает одобрения",
		slog.String("user_id", created.ID),
		slog.String("role", created.Role),
	)
	return created, nil
}

// CurrentUser возвращает пользователя по ID из токена.
// Удалённый пользователь → ErrNotFound, неодобренный → ErrNotApproved.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (*model.User, error) {
	if s.cache != nil {
		if u, ok := s.cache.Get(id); ok {
			return checkApproved(u)
		}
	}

	u, err := s.store.Repos().Users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if s.cache != nil {
		s.cache.Set(u)
	}
	return checkApproved(u)
}

func checkApproved(u *model.User) (*model.User, error) {
	if !u.Approved {
		return nil, ErrNotApproved
	}
	return u, nil
}

// InitAdmin создаёт первого администратора и пример invite-кода (editor).
// Повторный вызов при существующем администраторе → ErrAdminExists.
func (s *AuthService) InitAdmin(ctx context.Context) (*InitAdminResult, error) {
	hash, err := s.hasher.Hash(InitAdminPassword)
	if err != nil {
		return nil, err
	}

	var inviteCode string
	err = s.store.InTx(ctx, func(r repository.Repos) error {
		exists, err := r.Users.ExistsWithRole(ctx, rbac.RoleAdmin)
		if err != nil {
			return err
		}
		if exists {
			return ErrAdminExists
		}

		admin := &model.User{
			ID:           uuid.New().String(),
			Email:        InitAdminEmail,
			Name:         InitAdminName,
			Role:         rbac.RoleAdmin,
			Approved:     true,
			PasswordHash: hash,
		}
		if err := r.Users.Create(ctx, admin); err != nil {
			return mapRepoErr(err)
		}

		code, err := newInviteCode()
		if err != nil {
			return err
		}
		invite := &model.InviteCode{
			Code:         code,
			CreatedBy:    admin.ID,
			RoleAssigned: rbac.RoleEditor,
			ExpiresAt:    s.now().Add(initInviteTTL),
			MaxUses:      initInviteMaxUses,
		}
		if err := r.InviteCodes.Create(ctx, invite); err != nil {
			return mapRepoErr(err)
		}

		inviteCode = code
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("Создан администратор по умолчанию, смените пароль",
		slog.String("email", InitAdminEmail),
	)

	return &InitAdminResult{
		Message:          "Admin initialized",
		Email:            InitAdminEmail,
		Password:         InitAdminPassword,
		SampleInviteCode: inviteCode,
	}, nil
}

// newInviteCode генерирует 16-символьный URL-safe код.
func newInviteCode() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("генерация invite-кода: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
