package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

// Products — список оборудования с фильтром.
type Products struct {
	base
	items  []*model.Product
	loaded bool
	filter string
}

// NewProducts создаёт экран списка.
func NewProducts(api API, sessions session.Reader) *Products {
	return &Products{base: base{api: api, sessions: sessions}}
}

// Load загружает список. При ошибке прежний список сохраняется.
func (v *Products) Load(ctx context.Context) error {
	items, err := v.api.ListProducts(ctx)
	if err != nil {
		return v.fail("Erro ao carregar equipamentos", err)
	}
	v.items = items
	v.loaded = true
	return nil
}

// SetFilter задаёт строку поиска.
func (v *Products) SetFilter(s string) { v.filter = s }

// Items возвращает загруженный список без фильтра.
func (v *Products) Items() []*model.Product { return v.items }

// Filtered возвращает продукты, подходящие под фильтр.
func (v *Products) Filtered() []*model.Product {
	return FilterProducts(v.items, v.filter)
}

// FilterProducts — поиск подстроки без учёта регистра по tag, num_pavian,
// regiao, complexo, modelo_pavian. Пустой запрос возвращает всё.
func FilterProducts(items []*model.Product, query string) []*model.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	var out []*model.Product
	for _, p := range items {
		for _, f := range []string{p.Tag, p.NumPavian, p.Regiao, p.Complexo, p.ModeloPavian} {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Delete удаляет продукт и убирает его из списка.
func (v *Products) Delete(ctx context.Context, id string) error {
	if !v.can(rbac.ActionDeleteProduct) {
		return v.deny()
	}
	if err := v.api.DeleteProduct(ctx, id); err != nil {
		return v.fail("Erro ao excluir produto", err)
	}

	kept := v.items[:0:0]
	for _, p := range v.items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	v.items = kept
	v.success("Produto excluído com sucesso!")
	return nil
}

// Render рисует список.
func (v *Products) Render() string {
	header := "Equipamentos PAVIAN"
	var hints []string
	if v.filter != "" {
		hints = append(hints, field("Busca", v.filter))
	}
	if v.can(rbac.ActionCreateProduct) {
		hints = append(hints, field("Novo Produto", "/products/new"))
	}

	items := v.Filtered()
	var body string
	switch {
	case !v.loaded:
		body = labelStyle.Render("Carregando equipamentos...")
	case len(items) == 0 && v.filter != "":
		body = labelStyle.Render("Nenhum equipamento encontrado")
	case len(items) == 0:
		body = labelStyle.Render("Nenhum equipamento cadastrado")
	default:
		rows := make([][]string, 0, len(items))
		for _, p := range items {
			rows = append(rows, []string{
				p.ID, p.Tag, p.NumPavian, p.Regiao, p.Complexo, p.ModeloPavian,
				statusStyle(p.StatusImplantacao).Render(orNA(p.StatusImplantacao)),
			})
		}
		body = renderTable([]string{"ID", "TAG", "N° PAVIAN", "Região", "Complexo", "Modelo", "Status"}, rows)
	}

	return page(header, v.toast, lipgloss.JoinVertical(lipgloss.Left, hints...), body)
}

// statusStyle — цвет статуса внедрения.
func statusStyle(status string) lipgloss.Style {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "inativo"), strings.Contains(s, "desativado"):
		return errorStyle.UnsetBold()
	case strings.Contains(s, "ativo"), strings.Contains(s, "operacional"):
		return successStyle.UnsetBold()
	case strings.Contains(s, "manuten"), strings.Contains(s, "pendente"):
		return warnStyle
	default:
		return labelStyle
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
