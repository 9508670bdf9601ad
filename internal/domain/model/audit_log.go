package model

import "time"

// Типы сущностей журнала аудита.
const (
	EntityProduct    = "product"
	EntityUser       = "user"
	EntityInviteCode = "invite_code"
)

// Действия журнала аудита.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionApprove = "approve"
)

// AuditLogEntry — неизменяемая запись о мутирующем действии пользователя.
type AuditLogEntry struct {
	ID          string         `json:"id"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Action      string         `json:"action"`
	Changes     map[string]any `json:"changes"`
	PerformedBy string         `json:"performed_by"`
	UserName    string         `json:"user_name"`
	UserEmail   string         `json:"user_email"`
	Timestamp   time.Time      `json:"timestamp"`
}

// IsValidEntityType проверяет тип сущности для фильтра журнала.
func IsValidEntityType(t string) bool {
	switch t {
	case EntityProduct, EntityUser, EntityInviteCode:
		return true
	}
	return false
}
