package views

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

// NoCoordinates — подпись при отсутствии координат.
const NoCoordinates = "Coordenadas não disponíveis"

// ProductDetail — карточка оборудования: просмотр, правка, удаление.
type ProductDetail struct {
	base
	id      string
	product *model.Product
	deleted bool
}

// NewProductDetail создаёт карточку продукта id.
func NewProductDetail(api API, sessions session.Reader, id string) *ProductDetail {
	return &ProductDetail{base: base{api: api, sessions: sessions}, id: id}
}

// Product возвращает загруженный продукт или nil.
func (v *ProductDetail) Product() *model.Product { return v.product }

// Deleted — продукт удалён с этого экрана; приложение возвращается к списку.
func (v *ProductDetail) Deleted() bool { return v.deleted }

// Load загружает продукт.
func (v *ProductDetail) Load(ctx context.Context) error {
	p, err := v.api.GetProduct(ctx, v.id)
	if err != nil {
		return v.fail("Erro ao carregar produto", err)
	}
	v.product = p
	return nil
}

// Update применяет частичное обновление.
func (v *ProductDetail) Update(ctx context.Context, patch model.ProductPatch) error {
	if !v.can(rbac.ActionEditProduct) {
		return v.deny()
	}
	p, err := v.api.UpdateProduct(ctx, v.id, patch)
	if err != nil {
		return v.fail("Erro ao atualizar produto", err)
	}
	v.product = p
	v.success("Produto atualizado com sucesso!")
	return nil
}

// Delete удаляет продукт.
func (v *ProductDetail) Delete(ctx context.Context) error {
	if !v.can(rbac.ActionDeleteProduct) {
		return v.deny()
	}
	if err := v.api.DeleteProduct(ctx, v.id); err != nil {
		return v.fail("Erro ao excluir produto", err)
	}
	v.deleted = true
	v.success("Produto excluído com sucesso!")
	return nil
}

// Render рисует карточку.
func (v *ProductDetail) Render() string {
	if v.product == nil {
		return page("Detalhes do Produto", v.toast, labelStyle.Render("Carregando produto..."))
	}
	p := v.product

	var actions []string
	if v.can(rbac.ActionEditProduct) {
		actions = append(actions, field("Editar", "/products/"+p.ID+"/edit"))
	}
	if v.can(rbac.ActionDeleteProduct) {
		actions = append(actions, field("Excluir", "pavianctl product delete "+p.ID))
	}

	ident := lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("Identificação"),
		field("TAG", p.Tag),
		field("N° PAVIAN", p.NumPavian),
		field("Modelo", p.ModeloPavian),
		field("Potência existente", p.PotenciaPavianExistente),
		field("Situação proposta", p.SituacaoProposta),
		field("Status", p.StatusImplantacao),
		field("Instalação", deref(p.DataInstalacao)),
		field("Atualização", deref(p.DataAtualizacao)),
		field("Vencimento da garantia", deref(p.DataVencimentoGarantia)),
	)

	location := lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("Localização"),
		field("Região", p.Regiao),
		field("Complexo", p.Complexo),
		field("Montagem", p.ConfigTipoMontagem),
		field("Azimute", deref(p.Azimute)),
		field("Rota", RouteLink(&p.ProductData)),
	)

	radio := lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("Comunicação"),
		field("Repetidora A (principal)", p.RepetidoraAPrincipal),
		field("Repetidora B (redundante)", p.RepetidoraBRedundante),
		field("Firmware rádio", p.FirmwareRadio),
		field("Canal primário", p.IDCanalPrimario),
		field("Canal secundário", p.IDCanalSecundario),
		field("Rádio primário", p.ModeloRadioPrimario+" "+p.SerialRadioPrimario),
		field("Rádio secundário", p.ModeloRadioSecundario+" "+p.SerialRadioSecundario),
		field("Conversor primário", p.SerialConvPrimario),
		field("Conversor secundário", p.SerialConvSecundario),
		field("Melodia", p.TipoMelodia),
		field("Prioridade de alarmes", p.PrioridadeAlarmes),
	)

	return page("TAG: "+p.Tag, v.toast,
		lipgloss.JoinVertical(lipgloss.Left, actions...),
		ident,
		location,
		radio,
		v.renderComponents(),
		field("Observações", deref(p.Observacoes)),
		labelStyle.Render(fmt.Sprintf("Criado em %s, atualizado em %s", formatTime(p.CreatedAt), formatTime(p.UpdatedAt))),
	)
}

func (v *ProductDetail) renderComponents() string {
	p := v.product
	rows := make([][]string, 0, 4+len(p.Amplificadores))
	for _, nc := range p.NamedComponents() {
		rows = append(rows, []string{nc.Label, ComponentLabel(nc.Component)})
	}
	for i, amp := range p.Amplificadores {
		rows = append(rows, []string{"Amplificador " + strconv.Itoa(i+1), ComponentLabel(amp)})
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("Componentes"),
		field("Firmware placa mãe", p.FirmwarePlacaMae),
		renderTable([]string{"Componente", "Estado"}, rows),
	)
}

// ComponentLabel — "Não instalado" или "<модель> - Série: <номер>".
func ComponentLabel(c model.Component) string {
	if !c.IsInstalled() {
		return "Não instalado"
	}
	label := c.ModelType().Label()
	if sn := c.SerialNumber(); sn != "" {
		label += " - Série: " + sn
	}
	return label
}

// RouteLink — ссылка маршрута Google Maps или NoCoordinates.
func RouteLink(d *model.ProductData) string {
	lat, lng, ok := d.Coordinates()
	if !ok {
		return NoCoordinates
	}
	return "https://www.google.com/maps/dir/?api=1&destination=" + lat + "," + lng
}

// ProductForm — создание оборудования.
type ProductForm struct {
	base
	created *model.Product
}

// NewProductForm создаёт экран создания.
func NewProductForm(api API, sessions session.Reader) *ProductForm {
	return &ProductForm{base: base{api: api, sessions: sessions}}
}

// Created возвращает созданный продукт или nil.
func (v *ProductForm) Created() *model.Product { return v.created }

// Submit отправляет данные формы.
func (v *ProductForm) Submit(ctx context.Context, data model.ProductData) error {
	if !v.can(rbac.ActionCreateProduct) {
		return v.deny()
	}
	p, err := v.api.CreateProduct(ctx, data)
	if err != nil {
		return v.fail("Erro ao criar produto", err)
	}
	v.created = p
	v.success("Produto criado com sucesso!")
	return nil
}

// Render рисует результат отправки.
func (v *ProductForm) Render() string {
	if v.created == nil {
		return page("Novo Produto", v.toast,
			labelStyle.Render("Informe os dados do equipamento em JSON (campos obrigatórios: tag, num_pavian)"))
	}
	return page("Novo Produto", v.toast,
		field("ID", v.created.ID),
		field("TAG", v.created.Tag),
		field("N° PAVIAN", v.created.NumPavian),
	)
}
