package config

import (
	"log/slog"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"PR_DB_HOST":     "localhost",
		"PR_DB_NAME":     "pavian",
		"PR_DB_USER":     "pavian",
		"PR_DB_PASSWORD": "secret",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8001 {
		t.Errorf("Port = %d, ожидается 8001", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.JWTTokenTTL != 7*24*time.Hour {
		t.Errorf("JWTTokenTTL = %v, ожидается 168h", cfg.JWTTokenTTL)
	}
	if cfg.JWTIssuer != "pavian-registry" {
		t.Errorf("JWTIssuer = %q, ожидается pavian-registry", cfg.JWTIssuer)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, ожидается 10", cfg.BcryptCost)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, ожидается [*]", cfg.CORSOrigins)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	required := []string{"PR_DB_HOST", "PR_DB_NAME", "PR_DB_USER", "PR_DB_PASSWORD"}

	for _, key := range required {
		t.Run(key, func(t *testing.T) {
			envs := minimalEnvs()
			envs[key] = ""
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() без %s должен вернуть ошибку", key)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт вне диапазона", "PR_PORT", "70000"},
		{"порт не число", "PR_PORT", "abc"},
		{"неизвестный уровень логов", "PR_LOG_LEVEL", "trace"},
		{"неизвестный формат логов", "PR_LOG_FORMAT", "xml"},
		{"неизвестный sslmode", "PR_DB_SSL_MODE", "prefer"},
		{"некорректный TTL токена", "PR_JWT_TOKEN_TTL", "7d"},
		{"отрицательный TTL токена", "PR_JWT_TOKEN_TTL", "-1h"},
		{"bcrypt cost слишком мал", "PR_BCRYPT_COST", "2"},
		{"нулевой размер кэша", "PR_USER_CACHE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() с %s=%q должен вернуть ошибку", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["PR_PORT"] = "9090"
	envs["PR_LOG_LEVEL"] = "debug"
	envs["PR_LOG_FORMAT"] = "text"
	envs["PR_CORS_ORIGINS"] = "https://a.example.com, https://b.example.com"
	envs["PR_JWT_TOKEN_TTL"] = "12h"
	envs["PR_USER_CACHE_TTL"] = "1m"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.JWTTokenTTL != 12*time.Hour {
		t.Errorf("JWTTokenTTL = %v, ожидается 12h", cfg.JWTTokenTTL)
	}
	if cfg.UserCacheTTL != time.Minute {
		t.Errorf("UserCacheTTL = %v, ожидается 1m", cfg.UserCacheTTL)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.local",
		DBPort:     5433,
		DBName:     "pavian",
		DBUser:     "u",
		DBPassword: "p",
		DBSSLMode:  "require",
	}

	want := "host=db.local port=5433 dbname=pavian user=u password=p sslmode=require"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", got, want)
	}
	if got := cfg.DatabaseURL(); got != "postgres://db.local:5433/pavian" {
		t.Errorf("DatabaseURL() = %q", got)
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a, b ,c", 3},
		{"a,,b, ", 2},
	}
	for _, tt := range tests {
		if got := ParseCSV(tt.in); len(got) != tt.want {
			t.Errorf("ParseCSV(%q) = %v, ожидается %d элементов", tt.in, got, tt.want)
		}
	}
}

func TestMigrateURL_EscapesCredentials(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: 5432, DBName: "pavian",
		DBUser: "pavian", DBPassword: "p@ss/w:rd", DBSSLMode: "disable",
	}
	got := cfg.MigrateURL()
	want := "pgx5://pavian:p%40ss%2Fw%3Ard@db:5432/pavian?sslmode=disable"
	if got != want {
		t.Errorf("MigrateURL() = %q, хотели %q", got, want)
	}
}
