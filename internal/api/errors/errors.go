// Пакет errors — конструкторы стандартных ошибок REST API.
// Единый формат: {"error": {"code": "...", "message": "..."}, "detail": "..."}.
// Поле detail дублирует message для клиентов, читающих только его.
package errors

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotApproved        = "NOT_APPROVED"
	CodeConflict           = "CONFLICT"
	CodeInvalidInviteCode  = "INVALID_INVITE_CODE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Body — тело ответа ошибки. Экспортируется для клиента.
type Body struct {
	Error  Detail `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Detail — детали ошибки.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Body{
		Error: Detail{
			Code:    code,
			Message: message,
		},
		Detail: message,
	})
}

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// InvalidInviteCode — 400 код не существует, истёк или исчерпан.
func InvalidInviteCode(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeInvalidInviteCode, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// InvalidCredentials — 401 неверный email или пароль.
func InvalidCredentials(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeInvalidCredentials, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// NotApproved — 403 учётная запись ещё не одобрена.
func NotApproved(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeNotApproved, message)
}

// Conflict — 409 конфликт (дублирующийся ресурс).
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
