// Пакет app — клиентское приложение: связывает хранилище сессии,
// route guard, API gateway и экраны. Каждая навигация проходит через
// guard; 401 от сервера сбрасывает сессию и переводит на /login.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/bigkaa/pavian-registry/internal/client/gateway"
	"github.com/bigkaa/pavian-registry/internal/client/guard"
	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/client/views"
	"github.com/bigkaa/pavian-registry/internal/config"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// maxRedirects — предел цепочки переходов в одной навигации.
const maxRedirects = 3

// Screen — результат навигации или действия.
type Screen struct {
	// Path — путь, который в итоге показан
	Path string
	// Notice — уведомление guard (например, "Acesso negado")
	Notice string
	// Body — отрисованный экран
	Body string
}

// String склеивает уведомление и экран.
func (s Screen) String() string {
	if s.Notice == "" {
		return s.Body
	}
	return "! " + s.Notice + "\n" + s.Body
}

// App — клиентское приложение.
type App struct {
	sessions session.Store
	api      *gateway.Client
	guard    *guard.Guard
	logger   *slog.Logger

	// loginRequired выставляется обработчиком 401 и читается навигацией.
	loginRequired atomic.Bool
}

// New создаёт приложение по конфигурации клиента.
func New(cfg *config.ClientConfig, logger *slog.Logger) (*App, error) {
	sessions, err := session.NewFileStore(cfg.SessionFile, cfg.SessionKey, logger)
	if err != nil {
		return nil, fmt.Errorf("хранилище сессии: %w", err)
	}

	api, err := gateway.New(gateway.Options{
		BaseURL:    cfg.ServerURL,
		Timeout:    cfg.Timeout,
		CACertPath: cfg.CACertPath,
	}, sessions, logger)
	if err != nil {
		return nil, err
	}

	return NewWithDeps(sessions, api, logger), nil
}

// NewWithDeps создаёт приложение из готовых зависимостей.
func NewWithDeps(sessions session.Store, api *gateway.Client, logger *slog.Logger) *App {
	a := &App{
		sessions: sessions,
		api:      api,
		guard:    guard.New(sessions, logger),
		logger:   logger.With(slog.String("component", "app")),
	}
	api.OnUnauthorized(func() {
		a.loginRequired.Store(true)
	})
	return a
}

// Session возвращает текущую сессию или nil.
func (a *App) Session() *session.Session { return a.sessions.Get() }

// Open выполняет навигацию на rawPath (допускается строка запроса:
// /products?q=..., /audit?entity_type=...).
func (a *App) Open(ctx context.Context, rawPath string) (Screen, error) {
	query := url.Values{}
	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		query, _ = url.ParseQuery(rawPath[i+1:])
	}

	var notice string
	p := rawPath
	for range maxRedirects {
		d := a.guard.Resolve(p)
		a.logger.Debug("Навигация",
			slog.String("path", d.Path),
			slog.String("outcome", d.Outcome.String()),
		)

		switch d.Outcome {
		case guard.RedirectLogin:
			return Screen{Path: guard.PathLogin, Notice: notice, Body: loginScreen()}, nil
		case guard.RedirectDenied:
			if d.Notice != "" {
				notice = d.Notice
			}
			p = d.Target
			continue
		}

		body, err := a.render(ctx, d, query)
		if a.loginRequired.Swap(false) {
			// Сессия сброшена во время загрузки: следующий проход guard ведёт на /login.
			notice = "Sessão expirada. Faça login novamente"
			p = d.Path
			continue
		}
		if err != nil && gateway.IsCanceled(err) {
			return Screen{}, err
		}
		return Screen{Path: d.Path, Notice: notice, Body: body}, nil
	}

	return Screen{}, fmt.Errorf("слишком много переходов при открытии %s", rawPath)
}

// render загружает и рисует экран разрешённого маршрута.
// Ошибка загрузки уже отражена уведомлением экрана.
func (a *App) render(ctx context.Context, d guard.Decision, query url.Values) (string, error) {
	switch d.Route.Pattern {
	case guard.PathLogin:
		return loginScreen(), nil
	case guard.PathRegister:
		return registerScreen(), nil
	case guard.PathDashboard:
		v := views.NewDashboard(a.api, a.sessions)
		err := v.Load(ctx)
		return v.Render(), err
	case "/products":
		v := views.NewProducts(a.api, a.sessions)
		v.SetFilter(query.Get("q"))
		err := v.Load(ctx)
		return v.Render(), err
	case "/products/new":
		return views.NewProductForm(a.api, a.sessions).Render(), nil
	case "/products/{id}", "/products/{id}/edit":
		v := views.NewProductDetail(a.api, a.sessions, d.Params["id"])
		err := v.Load(ctx)
		return v.Render(), err
	case "/admin/users":
		v := views.NewUsers(a.api, a.sessions)
		err := v.Load(ctx)
		return v.Render(), err
	case "/admin/codes":
		v := views.NewInviteCodes(a.api, a.sessions)
		err := v.Load(ctx)
		return v.Render(), err
	case "/audit":
		v := views.NewAuditLogs(a.api, a.sessions)
		v.SetEntityType(query.Get("entity_type"))
		err := v.Load(ctx)
		return v.Render(), err
	default:
		return "", fmt.Errorf("для маршрута %s нет экрана", d.Route.Pattern)
	}
}

// action проверяет доступ к экрану path и выполняет fn.
// Запрет или отсутствие сессии возвращают экран перехода и ошибку без вызова fn.
func (a *App) action(ctx context.Context, p string, fn func() (string, error)) (Screen, error) {
	d := a.guard.Resolve(p)
	switch d.Outcome {
	case guard.RedirectLogin:
		s, err := a.Open(ctx, p)
		if err != nil {
			return s, err
		}
		return s, gateway.ErrUnauthenticated
	case guard.RedirectDenied:
		s, err := a.Open(ctx, p)
		if err != nil {
			return s, err
		}
		return s, views.ErrDenied
	}

	body, err := fn()
	if a.loginRequired.Swap(false) {
		return Screen{Path: guard.PathLogin, Notice: "Sessão expirada. Faça login novamente", Body: loginScreen()}, err
	}
	return Screen{Path: d.Path, Body: body}, err
}

func loginScreen() string {
	return "Login necessário: pavianctl login --email <email>\n"
}

func registerScreen() string {
	return "Cadastro: pavianctl register --name <nome> --email <email> --code <código>\n"
}

// --- Действия ---

// Login выполняет вход и открывает dashboard.
func (a *App) Login(ctx context.Context, email, password string) (Screen, error) {
	if _, err := a.api.Login(ctx, email, password); err != nil {
		return Screen{Path: guard.PathLogin, Body: loginScreen()}, err
	}
	a.loginRequired.Store(false)
	return a.Open(ctx, guard.PathDashboard)
}

// Logout сбрасывает сессию.
func (a *App) Logout() error {
	return a.api.Logout()
}

// Register проверяет invite-код и регистрирует пользователя.
func (a *App) Register(ctx context.Context, req gateway.RegisterRequest) (*gateway.RegisterResult, error) {
	check, err := a.api.ValidateInviteCode(ctx, req.InviteCode)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, &gateway.Error{Kind: gateway.KindValidation, Message: check.Message}
	}
	return a.api.Register(ctx, req)
}

// ValidateInviteCode проверяет invite-код.
func (a *App) ValidateInviteCode(ctx context.Context, code string) (*model.InviteCodeValidation, error) {
	return a.api.ValidateInviteCode(ctx, code)
}

// InitAdmin выполняет первичную инициализацию сервера.
func (a *App) InitAdmin(ctx context.Context) (*gateway.InitAdminResult, error) {
	return a.api.InitAdmin(ctx)
}

// Me запрашивает профиль текущего пользователя у сервера.
func (a *App) Me(ctx context.Context) (*model.User, error) {
	return a.api.Me(ctx)
}

// CreateProduct создаёт продукт.
func (a *App) CreateProduct(ctx context.Context, data model.ProductData) (Screen, error) {
	return a.action(ctx, "/products/new", func() (string, error) {
		v := views.NewProductForm(a.api, a.sessions)
		err := v.Submit(ctx, data)
		return v.Render(), err
	})
}

// UpdateProduct применяет частичное обновление продукта.
func (a *App) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (Screen, error) {
	return a.action(ctx, "/products/"+url.PathEscape(id)+"/edit", func() (string, error) {
		v := views.NewProductDetail(a.api, a.sessions, id)
		err := v.Update(ctx, patch)
		return v.Render(), err
	})
}

// DeleteProduct удаляет продукт.
func (a *App) DeleteProduct(ctx context.Context, id string) (Screen, error) {
	return a.action(ctx, "/products/"+url.PathEscape(id), func() (string, error) {
		v := views.NewProductDetail(a.api, a.sessions, id)
		if err := v.Delete(ctx); err != nil {
			return v.Render(), err
		}
		list := views.NewProducts(a.api, a.sessions)
		_ = list.Load(ctx)
		return renderToastLine(v.Toast()) + list.Render(), nil
	})
}

// ApproveUser одобряет пользователя.
func (a *App) ApproveUser(ctx context.Context, id string) (Screen, error) {
	return a.action(ctx, "/admin/users", func() (string, error) {
		v := views.NewUsers(a.api, a.sessions)
		err := v.Approve(ctx, id)
		return v.Render(), err
	})
}

// GenerateInviteCode выпускает invite-код.
func (a *App) GenerateInviteCode(ctx context.Context, req gateway.GenerateInviteCodeRequest) (Screen, error) {
	return a.action(ctx, "/admin/codes", func() (string, error) {
		v := views.NewInviteCodes(a.api, a.sessions)
		_ = v.Load(ctx)
		_, err := v.Generate(ctx, req)
		return v.Render(), err
	})
}

func renderToastLine(t *views.Toast) string {
	if t == nil {
		return ""
	}
	return t.Message + "\n"
}
