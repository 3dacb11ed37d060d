package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/angelmondragon/shopstack-backend/api/responses"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
)

const adminTokenHeader = "X-Admin-Token"

// AdminToken protects the central tenant management surface with a shared
// token. Without a configured token the surface stays open outside
// production and is refused entirely in production.
func AdminToken(cfg config.AdminConfig, isProd bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(cfg.APIToken)
			if token == "" {
				if isProd {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin api disabled"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			provided := strings.TrimSpace(r.Header.Get(adminTokenHeader))
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
