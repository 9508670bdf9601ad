// metrics.go — Prometheus HTTP метрики PAVIAN Registry.
// Регистрирует метрики: pr_http_requests_total, pr_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pr_http_requests_total",
			Help: "Общее количество HTTP-запросов к PAVIAN Registry",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pr_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к PAVIAN Registry в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			status := strconv.Itoa(rec.status)
			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(time.Since(start).Seconds())
		})
	}
}

// dynamicPrefixes — коллекции, за которыми следует идентификатор.
var dynamicPrefixes = []struct {
	prefix string
	param  string
}{
	{"/api/v1/invite-codes/validate/", "{code}"},
	{"/api/v1/products/", "{id}"},
	{"/api/v1/users/", "{id}"},
}

// normalizePath заменяет идентификаторы в пути на плейсхолдеры,
// чтобы не раздувать кардинальность метрик.
// /api/v1/products/a1b2c3d4-... → /api/v1/products/{id}
func normalizePath(path string) string {
	switch path {
	case "/api/v1/users/pending", "/api/v1/invite-codes/generate":
		return path
	}

	for _, p := range dynamicPrefixes {
		rest, ok := strings.CutPrefix(path, p.prefix)
		if !ok || rest == "" {
			continue
		}
		_, suffix, found := strings.Cut(rest, "/")
		if found {
			return p.prefix + p.param + "/" + suffix
		}
		return p.prefix + p.param
	}

	return path
}
