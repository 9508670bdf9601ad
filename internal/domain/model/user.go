// Пакет model — доменные модели PAVIAN Registry.
// Модели сериализуются в JSON как есть: один и тот же формат использует
// REST API сервера и клиентский gateway.
package model

import "time"

// User — зарегистрированный пользователь реестра.
type User struct {
	// ID — UUID пользователя
	ID string `json:"id"`
	// Email — адрес электронной почты (уникален)
	Email string `json:"email"`
	// Name — отображаемое имя
	Name string `json:"name"`
	// Role — роль (admin, editor, user), назначается invite-кодом
	Role string `json:"role"`
	// Approved — одобрен ли пользователь администратором
	Approved bool `json:"approved"`
	// ApprovedBy — ID администратора, одобрившего пользователя
	ApprovedBy *string `json:"approved_by"`
	// PasswordHash — bcrypt-хеш пароля, наружу не отдаётся
	PasswordHash string `json:"-"`
	// CreatedAt — время регистрации
	CreatedAt time.Time `json:"created_at"`
}
