// cors.go — CORS для браузерных клиентов REST API.
package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS возвращает CORS middleware для указанных origins.
// Пустой список — только same-origin (заголовки не выставляются).
func CORS(origins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
