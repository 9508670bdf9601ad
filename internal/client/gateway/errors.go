package gateway

import (
	"errors"
	"fmt"
)

// Kind — класс ошибки вызова API.
type Kind int

const (
	// KindAuthentication — нет сессии, неверные учётные данные или 401.
	KindAuthentication Kind = iota
	// KindAuthorization — 403.
	KindAuthorization
	// KindValidation — 400/409/422 или локальная проверка без сетевого вызова.
	KindValidation
	// KindRemote — сеть, 5xx и прочие ответы.
	KindRemote
)

// Сентинелы для errors.Is.
var (
	ErrUnauthenticated = errors.New("не аутентифицирован")
	ErrForbidden       = errors.New("доступ запрещён")
	ErrValidation      = errors.New("некорректные данные")
	ErrRemote          = errors.New("ошибка сервера")
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuthentication:
		return ErrUnauthenticated
	case KindAuthorization:
		return ErrForbidden
	case KindValidation:
		return ErrValidation
	default:
		return ErrRemote
	}
}

// Error — ошибка вызова API.
type Error struct {
	Kind Kind
	// Status — HTTP-статус; 0 для локальных и сетевых ошибок
	Status int
	// Code — машиночитаемый код из тела ответа
	Code string
	// Message — сообщение для пользователя
	Message string
	// Err — исходная ошибка (сеть, декодирование)
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind.sentinel(), e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind.sentinel(), msg)
}

// Is сопоставляет ошибку с сентинелом её класса.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error { return e.Err }

// kindForStatus классифицирует HTTP-статус ответа с ошибкой.
func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindAuthentication
	case status == 403:
		return KindAuthorization
	case status == 400, status == 409, status == 422:
		return KindValidation
	default:
		return KindRemote
	}
}

// validationError — локальная ошибка проверки, запрос не отправлялся.
func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Message возвращает сообщение ошибки для уведомления пользователя.
func Message(err error) string {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return err.Error()
}
