package views

import (
	"context"

	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/domain/rbac"
)

// Users — управление пользователями: все, ожидающие, одобрение.
type Users struct {
	base
	all     []*model.User
	pending []*model.User
	loaded  bool
}

// NewUsers создаёт экран пользователей.
func NewUsers(api API, sessions session.Reader) *Users {
	return &Users{base: base{api: api, sessions: sessions}}
}

// All возвращает всех пользователей.
func (v *Users) All() []*model.User { return v.all }

// Pending возвращает ожидающих одобрения.
func (v *Users) Pending() []*model.User { return v.pending }

// Load загружает оба списка; при ошибке оба сохраняются прежними.
func (v *Users) Load(ctx context.Context) error {
	all, err := v.api.ListUsers(ctx)
	if err != nil {
		return v.fail("Erro ao carregar usuários", err)
	}
	pending, err := v.api.ListPendingUsers(ctx)
	if err != nil {
		return v.fail("Erro ao carregar usuários", err)
	}
	v.all, v.pending, v.loaded = all, pending, true
	return nil
}

// Approve одобряет пользователя и перезагружает списки.
func (v *Users) Approve(ctx context.Context, id string) error {
	if !v.can(rbac.ActionApproveUser) {
		return v.deny()
	}
	if err := v.api.ApproveUser(ctx, id); err != nil {
		return v.fail("Erro ao aprovar usuário", err)
	}
	v.success("Usuário aprovado com sucesso!")
	done := v.toast

	// Ошибка перезагрузки не отменяет одобрение: списки правятся локально.
	if err := v.Load(ctx); err != nil {
		v.markApproved(id)
		v.toast = done
	}
	return nil
}

func (v *Users) markApproved(id string) {
	kept := v.pending[:0:0]
	for _, u := range v.pending {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	v.pending = kept
	for _, u := range v.all {
		if u.ID == id {
			u.Approved = true
		}
	}
}

// Render рисует оба списка.
func (v *Users) Render() string {
	if !v.loaded {
		return page("Gerenciar Usuários", v.toast, labelStyle.Render("Carregando usuários..."))
	}

	pending := labelStyle.Render("Nenhum usuário pendente")
	if len(v.pending) > 0 {
		rows := make([][]string, 0, len(v.pending))
		for _, u := range v.pending {
			rows = append(rows, []string{u.ID, u.Name, u.Email, roleLabel(u.Role), formatTime(u.CreatedAt)})
		}
		pending = renderTable([]string{"ID", "Nome", "Email", "Função", "Cadastro"}, rows)
	}

	rows := make([][]string, 0, len(v.all))
	for _, u := range v.all {
		status := warnStyle.Render("Pendente")
		if u.Approved {
			status = successStyle.UnsetBold().Render("Aprovado")
		}
		rows = append(rows, []string{u.Name, u.Email, roleLabel(u.Role), status})
	}

	return page("Gerenciar Usuários", v.toast,
		sectionStyle.Render("Aguardando aprovação"),
		pending,
		sectionStyle.Render("Todos os usuários"),
		renderTable([]string{"Nome", "Email", "Função", "Status"}, rows),
	)
}
