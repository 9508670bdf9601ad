// Пакет views — экраны клиента: загрузка данных через gateway,
// действия с проверкой rbac и текстовый рендер (lipgloss).
// Ошибка загрузки показывается уведомлением и не затирает
// ранее загруженные данные; отменённый запрос ничего не меняет.
package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bigkaa/pavian-registry/internal/client/gateway"
	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

// API — вызовы сервера, используемые экранами. Реализуется *gateway.Client.
type API interface {
	ListProducts(ctx context.Context) ([]*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, data model.ProductData) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*model.User, error)
	ListPendingUsers(ctx context.Context) ([]*model.User, error)
	ApproveUser(ctx context.Context, id string) error
	ListInviteCodes(ctx context.Context) ([]*model.InviteCode, error)
	GenerateInviteCode(ctx context.Context, req gateway.GenerateInviteCodeRequest) (*model.InviteCode, error)
	ListAuditLogs(ctx context.Context, f gateway.AuditFilter) ([]*model.AuditLogEntry, error)
}

// ErrDenied — действие запрещено политикой, запрос не отправлялся.
var ErrDenied = errors.New("acesso negado")

// ToastKind — вид уведомления.
type ToastKind int

const (
	ToastSuccess ToastKind = iota
	ToastError
)

// Toast — короткое уведомление пользователю.
type Toast struct {
	Kind    ToastKind
	Message string
}

// base — общее состояние экрана.
type base struct {
	api      API
	sessions session.Reader
	toast    *Toast
}

// role — роль текущего пользователя; пусто без сессии.
func (b *base) role() string {
	if s := b.sessions.Get(); s != nil {
		return s.User.Role
	}
	return ""
}

// can — разрешён ли ключ rbac текущему пользователю.
func (b *base) can(key string) bool {
	return rbac.CanAccess(b.role(), key)
}

// Toast возвращает последнее уведомление экрана.
func (b *base) Toast() *Toast { return b.toast }

func (b *base) success(msg string) {
	b.toast = &Toast{Kind: ToastSuccess, Message: msg}
}

// fail превращает ошибку в уведомление. Отмена уведомления не даёт.
// Возвращает err без изменений.
func (b *base) fail(prefix string, err error) error {
	if gateway.IsCanceled(err) {
		return err
	}
	var msg string
	switch {
	case errors.Is(err, ErrDenied), errors.Is(err, gateway.ErrForbidden):
		msg = "Acesso negado"
	case errors.Is(err, gateway.ErrUnauthenticated):
		msg = "Sessão expirada. Faça login novamente"
	default:
		msg = prefix + ": " + gateway.Message(err)
	}
	b.toast = &Toast{Kind: ToastError, Message: msg}
	return err
}

// deny фиксирует запрет действия без сетевого вызова.
func (b *base) deny() error {
	return b.fail("", ErrDenied)
}

// --- Рендер ---

var (
	colorPrimary = lipgloss.Color("#1E3A8A")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#16A34A")
	colorError   = lipgloss.Color("#DC2626")
	colorWarn    = lipgloss.Color("#D97706")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPrimary).Padding(0, 2)
)

// renderTable рисует таблицу с заголовком.
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

// renderToast рисует уведомление; пустая строка, если его нет.
func renderToast(t *Toast) string {
	if t == nil {
		return ""
	}
	if t.Kind == ToastError {
		return errorStyle.Render("✖ "+t.Message) + "\n"
	}
	return successStyle.Render("✔ "+t.Message) + "\n"
}

// page собирает экран: заголовок, уведомление, содержимое.
func page(title string, toast *Toast, body ...string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(renderToast(toast))
	for _, part := range body {
		if part == "" {
			continue
		}
		sb.WriteString(part)
		sb.WriteString("\n")
	}
	return sb.String()
}

// field рисует пару "подпись: значение".
func field(label, value string) string {
	if value == "" {
		value = "-"
	}
	return labelStyle.Render(label+":") + " " + value
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// roleLabel — подпись роли.
func roleLabel(role string) string {
	switch role {
	case rbac.RoleAdmin:
		return "Administrador"
	case rbac.RoleEditor:
		return "Editor"
	case rbac.RoleUser:
		return "Usuário"
	default:
		return fmt.Sprintf("Desconhecido (%s)", role)
	}
}
