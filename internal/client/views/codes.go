package views

import (
	"context"
	"fmt"
	"time"

	"github.com/bigkaa/pavian-registry/internal/client/gateway"
	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

// InviteCodes — список и выпуск invite-кодов.
type InviteCodes struct {
	base
	codes  []*model.InviteCode
	loaded bool
	now    func() time.Time
}

// NewInviteCodes создаёт экран кодов.
func NewInviteCodes(api API, sessions session.Reader) *InviteCodes {
	return &InviteCodes{base: base{api: api, sessions: sessions}, now: time.Now}
}

// Codes возвращает загруженные коды.
func (v *InviteCodes) Codes() []*model.InviteCode { return v.codes }

// Load загружает коды.
func (v *InviteCodes) Load(ctx context.Context) error {
	codes, err := v.api.ListInviteCodes(ctx)
	if err != nil {
		return v.fail("Erro ao carregar códigos", err)
	}
	v.codes, v.loaded = codes, true
	return nil
}

// Generate выпускает код и добавляет его в начало списка.
func (v *InviteCodes) Generate(ctx context.Context, req gateway.GenerateInviteCodeRequest) (*model.InviteCode, error) {
	if !v.can(rbac.ActionGenerateCode) {
		return nil, v.deny()
	}
	code, err := v.api.GenerateInviteCode(ctx, req)
	if err != nil {
		return nil, v.fail("Erro ao criar código", err)
	}
	v.codes = append([]*model.InviteCode{code}, v.codes...)
	v.success("Código criado com sucesso!")
	return code, nil
}

// CodeStatus — подпись состояния кода на момент now.
func CodeStatus(c *model.InviteCode, now time.Time) string {
	switch c.State(now) {
	case model.InviteCodeExpired:
		return "Expirado"
	case model.InviteCodeExhausted:
		return "Limite de usos atingido"
	default:
		return "Ativo"
	}
}

// Render рисует список кодов.
func (v *InviteCodes) Render() string {
	if !v.loaded && len(v.codes) == 0 {
		return page("Códigos de Convite", v.toast, labelStyle.Render("Carregando códigos..."))
	}
	if len(v.codes) == 0 {
		return page("Códigos de Convite", v.toast, labelStyle.Render("Nenhum código criado"))
	}

	now := v.now()
	rows := make([][]string, 0, len(v.codes))
	for _, c := range v.codes {
		status := CodeStatus(c, now)
		styled := successStyle.UnsetBold().Render(status)
		if !c.Usable(now) {
			styled = errorStyle.UnsetBold().Render(status)
		}
		rows = append(rows, []string{
			c.Code,
			roleLabel(c.RoleAssigned),
			fmt.Sprintf("%d/%d", c.UsedCount, c.MaxUses),
			formatTime(c.ExpiresAt),
			styled,
		})
	}
	return page("Códigos de Convite", v.toast,
		renderTable([]string{"Código", "Função", "Usos", "Expira em", "Status"}, rows))
}
