package model

import "time"

// MinInviteCodeLength — минимальная длина invite-кода.
const MinInviteCodeLength = 8

// InviteCode — код приглашения, назначающий роль при регистрации.
type InviteCode struct {
	Code         string    `json:"code"`
	CreatedBy    string    `json:"created_by"`
	RoleAssigned string    `json:"role_assigned"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	MaxUses      int       `json:"max_uses"`
	UsedCount    int       `json:"used_count"`
	UsedBy       []string  `json:"used_by"`
}

// InviteCodeState — результат проверки пригодности кода.
type InviteCodeState int

const (
	// InviteCodeUsable — код можно использовать.
	InviteCodeUsable InviteCodeState = iota
	// InviteCodeExpired — срок действия истёк.
	InviteCodeExpired
	// InviteCodeExhausted — исчерпан лимит использований.
	InviteCodeExhausted
)

// State возвращает состояние кода на момент now.
// Истечение проверяется раньше исчерпания.
func (c *InviteCode) State(now time.Time) InviteCodeState {
	if !now.Before(c.ExpiresAt) {
		return InviteCodeExpired
	}
	if c.UsedCount >= c.MaxUses {
		return InviteCodeExhausted
	}
	return InviteCodeUsable
}

// Usable — true, если used_count < max_uses и now < expires_at.
func (c *InviteCode) Usable(now time.Time) bool {
	return c.State(now) == InviteCodeUsable
}

// InviteCodeValidation — ответ публичной проверки кода.
type InviteCodeValidation struct {
	Valid   bool   `json:"valid"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}
