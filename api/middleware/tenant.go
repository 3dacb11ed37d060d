package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shopstack-backend/api/responses"
	"github.com/angelmondragon/shopstack-backend/internal/tenants"
	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
)

type tenantResolver interface {
	ExtractIdentifier(getHeader func(string) string, host string) string
	Resolve(ctx context.Context, rawIdentifier string) (*models.Tenant, error)
}

type tenantEntrypoint interface {
	Enter(ctx context.Context, tenantID string) (*tenancy.Context, error)
}

// TenantResolution identifies the tenant for the request from the identifier
// headers or the Host line and seeds the tenant execution context. Requests
// carrying no identifier pass through in the central context; an identifier
// that matches nothing is a hard 404.
func TenantResolution(resolver tenantResolver, entry tenantEntrypoint, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := resolver.ExtractIdentifier(r.Header.Get, r.Host)
			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			tenant, err := resolver.Resolve(r.Context(), identifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if tenant == nil {
				next.ServeHTTP(w, r)
				return
			}
			if tenant.Status != enums.TenantStatusActive {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "tenant is inactive"))
				return
			}

			tctx, err := entry.Enter(r.Context(), tenant.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enter tenant"))
				return
			}

			ctx := WithTenant(r.Context(), tctx)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenant.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant rejects requests that did not resolve to a tenant.
func RequireTenant(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if TenantFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found for provided identifier"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var _ tenantResolver = (*tenants.Resolver)(nil)
