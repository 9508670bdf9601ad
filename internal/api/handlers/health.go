package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/pavian-registry/internal/config"
)

const serviceName = "pavian-registry"

// Статусы проверок.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// ReadinessChecker — синхронная проверка PostgreSQL.
type ReadinessChecker interface {
	CheckReady() (status string, message string)
}

// DependencyReporter — последние результаты фонового мониторинга
// зависимостей (service.DephealthService).
type DependencyReporter interface {
	Health() map[string]bool
}

// HealthHandler обслуживает /health/live, /health/ready и /metrics.
type HealthHandler struct {
	db      ReadinessChecker
	deps    DependencyReporter
	metrics http.Handler
	now     func() time.Time
}

// NewHealthHandler: db == nil означает, что readiness всегда fail;
// deps == nil — блок dependencies в ответе не выводится.
func NewHealthHandler(db ReadinessChecker, deps DependencyReporter) *HealthHandler {
	return &HealthHandler{db: db, deps: deps, metrics: promhttp.Handler(), now: time.Now}
}

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// probeResponse — тело ответа обеих проб; checks и dependencies
// заполняются только для readiness.
type probeResponse struct {
	Status       string                 `json:"status"`
	Service      string                 `json:"service"`
	Version      string                 `json:"version"`
	Timestamp    string                 `json:"timestamp"`
	Checks       map[string]checkResult `json:"checks,omitempty"`
	Dependencies map[string]bool        `json:"dependencies,omitempty"`
}

func (h *HealthHandler) probe(status string) probeResponse {
	return probeResponse{
		Status:    status,
		Service:   serviceName,
		Version:   config.Version,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
}

// HealthLive всегда отвечает 200.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.probe(statusOK))
}

// HealthReady: 503 при недоступной PostgreSQL, degraded — если фоновый
// мониторинг видит упавшую зависимость.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	pg := checkResult{Status: statusFail, Message: "не инициализирован"}
	if h.db != nil {
		pg.Status, pg.Message = h.db.CheckReady()
	}

	resp := h.probe("")
	resp.Checks = map[string]checkResult{"postgresql": pg}

	statuses := []string{pg.Status}
	if h.deps != nil {
		resp.Dependencies = h.deps.Health()
		for _, healthy := range resp.Dependencies {
			if !healthy {
				statuses = append(statuses, statusDegraded)
			}
		}
	}
	resp.Status = overallStatus(statuses...)

	code := http.StatusOK
	if resp.Status == statusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics отдаёт Prometheus-метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// overallStatus: любой fail — fail, иначе любой degraded — degraded.
func overallStatus(statuses ...string) string {
	result := statusOK
	for _, s := range statuses {
		switch s {
		case statusFail:
			return statusFail
		case statusDegraded:
			result = statusDegraded
		}
	}
	return result
}
