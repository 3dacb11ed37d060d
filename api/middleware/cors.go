package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/shopstack-backend/pkg/config"
)

// CORS returns middleware that applies the configured allowed origin policy.
// Tenant storefronts live on arbitrary hostnames, so the default is open and
// deployments narrow it via configuration.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Tenant", "X-Tenant-Id", "X-Tenant-Slug", "X-Tenant-Domain", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
