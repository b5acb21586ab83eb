package internal

import (
	"net/http"

	"github.com/rs/cors"
)

// newCORS allows the request form frontend to call the API from another
// origin. A single "*" origin disables credentials, as browsers require.
func newCORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := !(len(origins) == 1 && origins[0] == "*")

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Token-Expires-At", "X-Token-Expires-In"},
		AllowCredentials: allowCredentials,
		MaxAge:           300, // 5 minutes
	})

	return c.Handler
}
