// Пакет config — загрузка и валидация конфигурации PAVIAN Registry
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервера PAVIAN Registry.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешённые CORS origins (через запятую, "*" — любой)
	CORSOrigins []string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимум соединений в пуле
	DBMaxConns int
	// Максимальное время жизни соединения в пуле
	DBConnMaxLifetime time.Duration

	// --- JWT ---

	// Путь к PEM-файлу приватного RSA-ключа (пусто — ключ генерируется при старте)
	JWTPrivateKeyPath string
	// Идентификатор ключа (kid) в заголовке JWT и в JWKS
	JWTKeyID string
	// Issuer выпускаемых токенов
	JWTIssuer string
	// Время жизни access token
	JWTTokenTTL time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- Пользователи и пароли ---

	// Стоимость bcrypt для хешей паролей
	BcryptCost int
	// TTL кэша пользователей в auth middleware
	UserCacheTTL time.Duration
	// Размер кэша пользователей
	UserCacheSize int

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- HTTP таймауты ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// PR_PORT — порт HTTP-сервера (по умолчанию 8001)
	cfg.Port, err = getEnvInt("PR_PORT", 8001)
	if err != nil {
		return nil, fmt.Errorf("PR_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PR_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// PR_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("PR_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("PR_LOG_LEVEL: %w", err)
	}

	// PR_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("PR_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PR_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// PR_CORS_ORIGINS — разрешённые origins (по умолчанию "*")
	cfg.CORSOrigins = ParseCSV(getEnvDefault("PR_CORS_ORIGINS", "*"))

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("PR_DB_HOST")
	if err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("PR_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("PR_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("PR_DB_NAME")
	if err != nil {
		return nil, err
	}

	cfg.DBUser, err = getEnvRequired("PR_DB_USER")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = getEnvRequired("PR_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// PR_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("PR_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("PR_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	cfg.DBMaxConns, err = getEnvInt("PR_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("PR_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("PR_DB_MAX_CONNS: значение %d должно быть >= 1", cfg.DBMaxConns)
	}

	cfg.DBConnMaxLifetime, err = getEnvDuration("PR_DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("PR_DB_CONN_MAX_LIFETIME: %w", err)
	}

	// --- JWT ---

	cfg.JWTPrivateKeyPath = getEnvDefault("PR_JWT_PRIVATE_KEY_PATH", "")
	cfg.JWTKeyID = getEnvDefault("PR_JWT_KEY_ID", "pavian-registry-1")
	cfg.JWTIssuer = getEnvDefault("PR_JWT_ISSUER", "pavian-registry")

	// PR_JWT_TOKEN_TTL — время жизни токена (по умолчанию 7 дней)
	cfg.JWTTokenTTL, err = getEnvDuration("PR_JWT_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("PR_JWT_TOKEN_TTL: %w", err)
	}
	if cfg.JWTTokenTTL <= 0 {
		return nil, fmt.Errorf("PR_JWT_TOKEN_TTL: значение должно быть положительным")
	}

	cfg.JWTLeeway, err = getEnvDuration("PR_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PR_JWT_LEEWAY: %w", err)
	}

	// --- Пользователи ---

	cfg.BcryptCost, err = getEnvInt("PR_BCRYPT_COST", 10)
	if err != nil {
		return nil, fmt.Errorf("PR_BCRYPT_COST: %w", err)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("PR_BCRYPT_COST: значение %d вне допустимого диапазона 4-31", cfg.BcryptCost)
	}

	cfg.UserCacheTTL, err = getEnvDuration("PR_USER_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PR_USER_CACHE_TTL: %w", err)
	}

	cfg.UserCacheSize, err = getEnvInt("PR_USER_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("PR_USER_CACHE_SIZE: %w", err)
	}
	if cfg.UserCacheSize < 1 {
		return nil, fmt.Errorf("PR_USER_CACHE_SIZE: значение %d должно быть >= 1", cfg.UserCacheSize)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("PR_DEPHEALTH_GROUP", "pavian")
	cfg.DephealthCheckInterval, err = getEnvDuration("PR_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PR_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- HTTP таймауты ---

	cfg.HTTPReadTimeout, err = getEnvDuration("PR_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PR_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("PR_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PR_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("PR_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PR_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("PR_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PR_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// ParseLogLevel преобразует строку уровня логирования в slog.Level.
// Экспортируется для CLI, который настраивает логгер самостоятельно.
func ParseLogLevel(level string) (slog.Level, error) {
	return parseLogLevel(level)
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// ParseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
