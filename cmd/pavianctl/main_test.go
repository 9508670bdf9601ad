package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// run выполняет CLI с изолированным файлом сессии.
func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PAVIANCTL_SESSION_FILE", filepath.Join(dir, "session"))
	t.Setenv("PAVIANCTL_SESSION_KEY", "test-key")
	t.Setenv("PAVIANCTL_SERVER", serverURL)

	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnonymousOpenShowsLogin(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	for _, args := range [][]string{
		{"products"},
		{"dashboard"},
		{"open", "/admin/users"},
		{"audit", "--entity-type", "product"},
	} {
		out, err := run(t, srv.URL, args...)
		if err != nil {
			t.Fatalf("%v: ошибка: %v", args, err)
		}
		if !strings.Contains(out, "pavianctl login") {
			t.Errorf("%v: ожидался экран входа, получено %q", args, out)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("анонимная навигация не должна обращаться к серверу, вызовов: %d", n)
	}
}

func TestValidateShortCodeIsLocal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	if _, err := run(t, srv.URL, "codes", "validate", "abc"); err == nil {
		t.Fatal("ожидалась ошибка для короткого кода")
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("короткий код не должен уходить на сервер, вызовов: %d", n)
	}
}

func TestLoginThenWhoami(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"token_type":   "bearer",
			"user": map[string]any{
				"id": "u1", "name": "Ana", "email": "ana@x.com", "role": "user", "approved": true,
			},
		})
	})
	mux.HandleFunc("GET /api/v1/products", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	t.Setenv("PAVIANCTL_SESSION_FILE", filepath.Join(dir, "session"))
	t.Setenv("PAVIANCTL_SESSION_KEY", "test-key")
	t.Setenv("PAVIANCTL_SERVER", srv.URL)

	exec := func(args ...string) (string, error) {
		root := rootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}

	if out, err := exec("login", "--email", "ana@x.com", "--password", "secret"); err != nil {
		t.Fatalf("login: %v (%s)", err, out)
	}

	out, err := exec("whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "ana@x.com") || !strings.Contains(out, "role=user") {
		t.Errorf("whoami = %q", out)
	}

	out, err = exec("codes")
	if err != nil {
		t.Fatalf("codes: %v", err)
	}
	if !strings.Contains(out, "Acesso negado") {
		t.Errorf("роль user не должна видеть коды, получено %q", out)
	}

	if _, err := exec("logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := exec("whoami"); err == nil {
		t.Error("после logout сессии быть не должно")
	}
}
