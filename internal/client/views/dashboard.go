package views

import (
	"context"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/bigkaa/pavian-registry/internal/client/gateway"
	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

// DashboardStats — счётчики главного экрана; -1 — не загружено.
type DashboardStats struct {
	Products int
	Users    int
	Pending  int
	Logs     int
}

// Dashboard — главный экран.
type Dashboard struct {
	base
	stats DashboardStats
}

// NewDashboard создаёт главный экран.
func NewDashboard(api API, sessions session.Reader) *Dashboard {
	return &Dashboard{
		base:  base{api: api, sessions: sessions},
		stats: DashboardStats{Products: -1, Users: -1, Pending: -1, Logs: -1},
	}
}

// Stats возвращает текущие счётчики.
func (d *Dashboard) Stats() DashboardStats { return d.stats }

// Load загружает счётчики, доступные роли. При ошибке счётчики не меняются.
func (d *Dashboard) Load(ctx context.Context) error {
	next := d.stats

	products, err := d.api.ListProducts(ctx)
	if err != nil {
		return d.fail("Erro ao carregar estatísticas", err)
	}
	next.Products = len(products)

	if d.can(rbac.ViewAdminUsers) {
		users, err := d.api.ListUsers(ctx)
		if err != nil {
			return d.fail("Erro ao carregar estatísticas", err)
		}
		pending, err := d.api.ListPendingUsers(ctx)
		if err != nil {
			return d.fail("Erro ao carregar estatísticas", err)
		}
		next.Users = len(users)
		next.Pending = len(pending)
	}

	if d.can(rbac.ViewAuditLogs) {
		logs, err := d.api.ListAuditLogs(ctx, gateway.AuditFilter{})
		if err != nil {
			return d.fail("Erro ao carregar estatísticas", err)
		}
		next.Logs = len(logs)
	}

	d.stats = next
	return nil
}

// Render рисует главный экран.
func (d *Dashboard) Render() string {
	name := ""
	if s := d.sessions.Get(); s != nil {
		name = s.User.Name
	}

	cards := []string{card("Produtos", d.stats.Products, "Total de produtos cadastrados")}
	if d.can(rbac.ViewAdminUsers) {
		cards = append(cards,
			card("Usuários", d.stats.Users, "Usuários cadastrados"),
			card("Pendentes", d.stats.Pending, "Aguardando aprovação"),
		)
	}
	if d.can(rbac.ViewAuditLogs) {
		cards = append(cards, card("Atividades", d.stats.Logs, "Registros no histórico"))
	}

	actions := []string{sectionStyle.Render("Ações Rápidas")}
	actions = append(actions, field("Ver Produtos", "/products"))
	if d.can(rbac.ActionCreateProduct) {
		actions = append(actions, field("Novo Produto", "/products/new"))
	}
	if d.can(rbac.ViewAdminCodes) {
		actions = append(actions, field("Códigos de Convite", "/admin/codes"))
	}

	return page("Dashboard", d.toast,
		"Bem-vindo, "+name+" ("+roleLabel(d.role())+")",
		Nav(d.role()),
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		lipgloss.JoinVertical(lipgloss.Left, actions...),
	)
}

func card(title string, value int, hint string) string {
	v := "..."
	if value >= 0 {
		v = strconv.Itoa(value)
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render(title),
		titleStyle.UnsetMarginBottom().Render(v),
		labelStyle.Render(hint),
	))
}

// Nav рисует навигацию, доступную роли.
func Nav(role string) string {
	items := rbac.VisibleNav(role)
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Label+" "+labelStyle.Render(it.Path))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joinWith(parts, " | ")...)
}

func joinWith(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
