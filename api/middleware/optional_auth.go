package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shopstack-backend/pkg/auth/session"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
)

// OptionalAuth applies the full Auth checks when an Authorization header is
// present and otherwise lets the request through anonymously. Cart endpoints
// use it so guests and logged-in users share one surface.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	authn := Auth(cfg, verifier, logg)
	return func(next http.Handler) http.Handler {
		guarded := authn(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}
