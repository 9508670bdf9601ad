package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ClientConfig — параметры CLI-клиента pavianctl (переменные PAVIANCTL_*).
type ClientConfig struct {
	// Адрес сервера PAVIAN Registry
	ServerURL string
	// Путь к зашифрованному файлу сессии
	SessionFile string
	// Ключ шифрования сессии (пусто — ключ в SessionFile+".key")
	SessionKey string
	// CA-сертификат сервера для TLS
	CACertPath string
	// Таймаут HTTP-запроса
	Timeout time.Duration
	// Уровень логирования (в stderr)
	LogLevel slog.Level
}

// LoadClient загружает конфигурацию клиента из окружения.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	var err error

	cfg.ServerURL = getEnvDefault("PAVIANCTL_SERVER", "http://localhost:8001")

	defaultSession := ""
	if dir, dirErr := os.UserConfigDir(); dirErr == nil {
		defaultSession = filepath.Join(dir, "pavianctl", "session")
	}
	cfg.SessionFile = getEnvDefault("PAVIANCTL_SESSION_FILE", defaultSession)
	cfg.SessionKey = getEnvDefault("PAVIANCTL_SESSION_KEY", "")
	cfg.CACertPath = getEnvDefault("PAVIANCTL_CA_CERT", "")

	cfg.Timeout, err = getEnvDuration("PAVIANCTL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PAVIANCTL_TIMEOUT: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("PAVIANCTL_TIMEOUT: значение должно быть положительным")
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("PAVIANCTL_LOG_LEVEL", "warn"))
	if err != nil {
		return nil, fmt.Errorf("PAVIANCTL_LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// Validate проверяет итоговую конфигурацию (после флагов командной строки).
func (c *ClientConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("адрес сервера не задан (--server или PAVIANCTL_SERVER)")
	}
	if c.SessionFile == "" {
		return fmt.Errorf("путь к файлу сессии не задан (--session-file или PAVIANCTL_SESSION_FILE)")
	}
	return nil
}

// SetupClientLogger создаёт текстовый логгер клиента в stderr.
func SetupClientLogger(cfg *ClientConfig) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
}
