// Пакет gateway — HTTP-клиент REST API PAVIAN Registry.
// Единственная точка, через которую клиент обращается к серверу:
// подставляет Bearer-токен текущей сессии и централизованно
// обрабатывает 401 (сброс сессии + OnUnauthorized).
package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	apierrors "github.com/bigkaa/pavian-registry/internal/api/errors"
	"github.com/bigkaa/pavian-registry/internal/client/session"
)

// apiPrefix — префикс REST API.
const apiPrefix = "/api/v1"

// maxErrorBody — сколько байт тела ошибки читать.
const maxErrorBody = 64 << 10

// Options — параметры клиента.
type Options struct {
	// BaseURL — адрес сервера, например http://localhost:8080
	BaseURL string
	// Timeout — общий таймаут HTTP-запроса (0 — 30s)
	Timeout time.Duration
	// CACertPath — CA-сертификат для TLS (пусто — системный пул)
	CACertPath string
}

// Client — клиент REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   session.Store
	logger     *slog.Logger

	mu             sync.Mutex
	onUnauthorized []func()
}

// New создаёт клиент API.
func New(opts Options, sessions session.Store, logger *slog.Logger) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	if opts.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(opts.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата: %w", err)
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	return NewWithHTTPClient(opts.BaseURL, httpClient, sessions, logger), nil
}

// NewWithHTTPClient создаёт клиент с готовым http.Client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, sessions session.Store, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		sessions:   sessions,
		logger:     logger.With(slog.String("component", "api_gateway")),
	}
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в %s нет PEM-сертификатов", caCertPath)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// OnUnauthorized регистрирует обработчик, вызываемый после сброса
// сессии из-за 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
	c.mu.Unlock()
}

// request — параметры одного вызова.
type request struct {
	method string
	path   string
	body   any
	out    any
	// anonymous — не подставлять токен
	anonymous bool
}

// do выполняет запрос и декодирует ответ в req.out.
func (c *Client) do(ctx context.Context, req request) error {
	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("сериализация запроса %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+apiPrefix+req.path, body)
	if err != nil {
		return fmt.Errorf("создание запроса %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	authenticated := false
	if !req.anonymous {
		if s := c.sessions.Get(); s != nil {
			httpReq.Header.Set("Authorization", "Bearer "+s.Token)
			authenticated = true
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &Error{Kind: KindRemote, Message: "servidor indisponível", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if req.out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(req.out); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &Error{Kind: KindRemote, Status: resp.StatusCode, Message: "resposta inválida do servidor", Err: err}
		}
		return nil
	}

	apiErr := decodeError(resp)
	c.logger.Debug("Ошибка вызова API",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.String("code", apiErr.Code),
	)

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		c.invalidate()
	}
	return apiErr
}

// decodeError разбирает тело ответа с ошибкой.
func decodeError(resp *http.Response) *Error {
	e := &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body apierrors.Body
	if json.Unmarshal(raw, &body) == nil {
		e.Code = body.Error.Code
		e.Message = body.Error.Message
		if e.Message == "" {
			e.Message = body.Detail
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

// invalidate — единственный обработчик 401: сброс сессии и уведомление.
func (c *Client) invalidate() {
	if err := c.sessions.Clear(); err != nil {
		c.logger.Error("Не удалось сбросить сессию",
			slog.String("error", err.Error()),
		)
	}
	c.logger.Info("Сессия недействительна, требуется повторный вход")

	c.mu.Lock()
	handlers := make([]func(), len(c.onUnauthorized))
	copy(handlers, c.onUnauthorized)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// IsCanceled — запрос отменён вызывающим.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
