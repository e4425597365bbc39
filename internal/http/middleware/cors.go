package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS is deliberately permissive: the UI is served from arbitrary origins
// and every endpoint already requires a bearer token.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})
}
