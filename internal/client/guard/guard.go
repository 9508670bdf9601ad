// Пакет guard — проверка навигации клиента: для каждого пути решает,
// показать экран, отправить на вход или вернуть на dashboard с уведомлением.
// Решение принимается заново при каждом вызове и зависит только от
// текущей сессии и таблицы rbac.
package guard

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

// Пути навигации.
const (
	PathRoot      = "/"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathDashboard = "/dashboard"
)

// DeniedNotice — уведомление при отказе в доступе.
const DeniedNotice = "Acesso negado"

// Outcome — исход проверки.
type Outcome int

const (
	// Render — показать экран маршрута.
	Render Outcome = iota
	// RedirectLogin — сессии нет, перейти на /login.
	RedirectLogin
	// RedirectDenied — доступ запрещён, перейти на Target с уведомлением Notice.
	RedirectDenied
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDenied:
		return "redirect_denied"
	default:
		return "unknown"
	}
}

// State — состояние навигации относительно маршрута.
type State int

const (
	Unauthenticated State = iota
	AuthenticatedAuthorized
	AuthenticatedDenied
)

// Route — маршрут клиента.
type Route struct {
	// Pattern — chi-паттерн пути
	Pattern string
	// Title — заголовок экрана
	Title string
	// Key — ключ rbac; пусто для публичных маршрутов
	Key string
}

// Public — маршрут доступен без сессии.
func (r Route) Public() bool { return r.Key == "" }

// routes — таблица маршрутов клиента.
var routes = []Route{
	{Pattern: PathLogin, Title: "Login"},
	{Pattern: PathRegister, Title: "Cadastro"},
	{Pattern: PathDashboard, Title: "Dashboard", Key: rbac.ViewDashboard},
	{Pattern: "/products", Title: "Produtos", Key: rbac.ViewProducts},
	{Pattern: "/products/new", Title: "Novo Produto", Key: rbac.ActionCreateProduct},
	{Pattern: "/products/{id}", Title: "Detalhes do Produto", Key: rbac.ViewProductDetail},
	{Pattern: "/products/{id}/edit", Title: "Editar Produto", Key: rbac.ActionEditProduct},
	{Pattern: "/admin/users", Title: "Usuários", Key: rbac.ViewAdminUsers},
	{Pattern: "/admin/codes", Title: "Códigos de Convite", Key: rbac.ViewAdminCodes},
	{Pattern: "/audit", Title: "Histórico", Key: rbac.ViewAuditLogs},
}

// Decision — результат проверки пути.
type Decision struct {
	Outcome Outcome
	State   State
	// Path — нормализованный путь ("/" уже заменён на /dashboard)
	Path string
	// Route — найденный маршрут (нулевой для неизвестного пути)
	Route Route
	// Params — параметры пути, например {"id": "..."}
	Params map[string]string
	// Target — путь перехода для RedirectLogin/RedirectDenied
	Target string
	// Notice — уведомление пользователю (пусто, если не нужно)
	Notice string
	// NotFound — путь не совпал ни с одним маршрутом
	NotFound bool
}

// Guard — проверка навигации.
type Guard struct {
	sessions session.Reader
	mux      *chi.Mux
	byPath   map[string]Route
	logger   *slog.Logger
}

// New создаёт Guard поверх хранилища сессии.
func New(sessions session.Reader, logger *slog.Logger) *Guard {
	mux := chi.NewRouter()
	byPath := make(map[string]Route, len(routes))
	noop := func(http.ResponseWriter, *http.Request) {}
	for _, r := range routes {
		mux.Get(r.Pattern, noop)
		byPath[r.Pattern] = r
	}

	return &Guard{
		sessions: sessions,
		mux:      mux,
		byPath:   byPath,
		logger:   logger.With(slog.String("component", "route_guard")),
	}
}

// Routes возвращает копию таблицы маршрутов.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Resolve проверяет путь навигации. Строка запроса отбрасывается.
func (g *Guard) Resolve(rawPath string) Decision {
	p := normalize(rawPath)
	sess := g.sessions.Get()

	route, params, found := g.match(p)
	if !found {
		if sess == nil {
			return Decision{Outcome: RedirectLogin, State: Unauthenticated, Path: p, Target: PathLogin, NotFound: true}
		}
		return Decision{Outcome: RedirectDenied, State: AuthenticatedDenied, Path: p, Target: PathDashboard, NotFound: true}
	}

	d := Decision{Path: p, Route: route, Params: params}

	if route.Public() {
		d.Outcome = Render
		d.State = Unauthenticated
		if sess != nil {
			d.State = AuthenticatedAuthorized
		}
		return d
	}

	if sess == nil {
		d.Outcome = RedirectLogin
		d.State = Unauthenticated
		d.Target = PathLogin
		return d
	}

	if !rbac.CanAccess(sess.User.Role, route.Key) {
		g.logger.Debug("Доступ к маршруту запрещён",
			slog.String("path", p),
			slog.String("role", sess.User.Role),
			slog.String("key", route.Key),
		)
		d.Outcome = RedirectDenied
		d.State = AuthenticatedDenied
		d.Target = PathDashboard
		d.Notice = DeniedNotice
		return d
	}

	d.Outcome = Render
	d.State = AuthenticatedAuthorized
	return d
}

// match ищет маршрут через chi-дерево.
func (g *Guard) match(p string) (Route, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	if !g.mux.Match(rctx, http.MethodGet, p) {
		return Route{}, nil, false
	}

	route, ok := g.byPath[rctx.RoutePattern()]
	if !ok {
		return Route{}, nil, false
	}

	var params map[string]string
	for i, k := range rctx.URLParams.Keys {
		if params == nil {
			params = make(map[string]string, len(rctx.URLParams.Keys))
		}
		params[k] = rctx.URLParams.Values[i]
	}
	return route, params, true
}

// normalize отбрасывает query/fragment, чистит путь и раскрывает "/" в /dashboard.
func normalize(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	p := path.Clean(raw)
	if p == PathRoot {
		return PathDashboard
	}
	return p
}
