// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrInvalidRole — некорректная роль.
	ErrInvalidRole = errors.New("некорректная роль: допустимые значения — admin, editor, user")
	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	// ErrNotApproved — учётная запись ожидает одобрения администратором.
	ErrNotApproved = errors.New("учётная запись ожидает одобрения администратором")
	// ErrInvalidInviteCode — invite-код не существует.
	ErrInvalidInviteCode = errors.New("недействительный invite-код")
	// ErrInviteCodeExpired — срок действия invite-кода истёк.
	ErrInviteCodeExpired = errors.New("срок действия invite-кода истёк")
	// ErrInviteCodeUsed — лимит использований invite-кода исчерпан.
	ErrInviteCodeUsed = errors.New("invite-код уже использован")
	// ErrAdminExists — администратор уже создан (init-admin).
	ErrAdminExists = errors.New("администратор уже существует")
)
