package views

import (
	"context"
	"encoding/json"

	"github.com/bigkaa/pavian-registry/internal/client/gateway"
	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// maxChangesWidth — обрезка столбца изменений.
const maxChangesWidth = 60

// AuditLogs — журнал аудита с фильтром по типу сущности.
type AuditLogs struct {
	base
	entries    []*model.AuditLogEntry
	loaded     bool
	entityType string
}

// NewAuditLogs создаёт экран журнала.
func NewAuditLogs(api API, sessions session.Reader) *AuditLogs {
	return &AuditLogs{base: base{api: api, sessions: sessions}}
}

// Load загружает весь журнал; фильтр применяется локально.
func (v *AuditLogs) Load(ctx context.Context) error {
	entries, err := v.api.ListAuditLogs(ctx, gateway.AuditFilter{})
	if err != nil {
		return v.fail("Erro ao carregar histórico", err)
	}
	v.entries, v.loaded = entries, true
	return nil
}

// SetEntityType задаёт фильтр; пусто или "all" — все записи.
func (v *AuditLogs) SetEntityType(t string) {
	if t == "all" {
		t = ""
	}
	v.entityType = t
}

// Filtered возвращает записи под текущий фильтр.
func (v *AuditLogs) Filtered() []*model.AuditLogEntry {
	if v.entityType == "" {
		return v.entries
	}
	var out []*model.AuditLogEntry
	for _, e := range v.entries {
		if e.EntityType == v.entityType {
			out = append(out, e)
		}
	}
	return out
}

// Render рисует журнал.
func (v *AuditLogs) Render() string {
	filter := field("Filtro", entityLabel(v.entityType))
	if !v.loaded {
		return page("Histórico de Atividades", v.toast, filter, labelStyle.Render("Carregando histórico..."))
	}

	entries := v.Filtered()
	if len(entries) == 0 {
		return page("Histórico de Atividades", v.toast, filter, labelStyle.Render("Nenhuma atividade registrada"))
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			formatTime(e.Timestamp),
			e.UserName,
			actionLabel(e.Action),
			entityLabel(e.EntityType),
			e.EntityID,
			changesSummary(e.Changes),
		})
	}
	return page("Histórico de Atividades", v.toast, filter,
		renderTable([]string{"Data", "Usuário", "Ação", "Entidade", "ID", "Alterações"}, rows))
}

func entityLabel(t string) string {
	switch t {
	case "":
		return "Todas Atividades"
	case model.EntityProduct:
		return "Produto"
	case model.EntityUser:
		return "Usuário"
	case model.EntityInviteCode:
		return "Código"
	default:
		return t
	}
}

func actionLabel(a string) string {
	switch a {
	case model.ActionCreate:
		return "criou"
	case model.ActionUpdate:
		return "atualizou"
	case model.ActionDelete:
		return "excluiu"
	case model.ActionApprove:
		return "aprovou"
	default:
		return a
	}
}

func changesSummary(changes map[string]any) string {
	if len(changes) == 0 {
		return "-"
	}
	buf, err := json.Marshal(changes)
	if err != nil {
		return "-"
	}
	s := []rune(string(buf))
	if len(s) > maxChangesWidth {
		return string(s[:maxChangesWidth-1]) + "…"
	}
	return string(s)
}
