package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter, msg string)
		wantStatus int
		wantCode   string
	}{
		{"ValidationError", ValidationError, http.StatusBadRequest, CodeValidationError},
		{"InvalidInviteCode", InvalidInviteCode, http.StatusBadRequest, CodeInvalidInviteCode},
		{"NotFound", NotFound, http.StatusNotFound, CodeNotFound},
		{"Unauthorized", Unauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"InvalidCredentials", InvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"Forbidden", Forbidden, http.StatusForbidden, CodeForbidden},
		{"NotApproved", NotApproved, http.StatusForbidden, CodeNotApproved},
		{"Conflict", Conflict, http.StatusConflict, CodeConflict},
		{"InternalError", InternalError, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "сообщение")

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, хотели %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body Body
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("разбор тела: %v", err)
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != "сообщение" || body.Detail != "сообщение" {
				t.Errorf("тело = %+v", body)
			}
		})
	}
}
