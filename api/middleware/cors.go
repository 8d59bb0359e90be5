package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the browser origin policy. Without configured origins only the
// local storefront dev server is allowed.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			IdempotencyKeyHeader,
			requestIDHeader,
		},
		ExposedHeaders:   []string{requestIDHeader, replayHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
