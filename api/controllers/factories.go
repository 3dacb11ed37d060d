package controllers

import (
	"net/http"

	"github.com/angelmondragon/shopstack-backend/api/middleware"
	"github.com/angelmondragon/shopstack-backend/api/responses"
	authsvc "github.com/angelmondragon/shopstack-backend/internal/auth"
	cartsvc "github.com/angelmondragon/shopstack-backend/internal/cart"
	productsvc "github.com/angelmondragon/shopstack-backend/internal/products"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
)

// Tenant-scoped services are built per request from the resolved tenant
// context; the factories close over the shared stack (session manager,
// config) and bind the tenant database.
type (
	AuthServiceFactory    func(t *tenancy.Context) (authsvc.Service, error)
	ProductServiceFactory func(t *tenancy.Context) (productsvc.Service, error)
	CartServiceFactory    func(t *tenancy.Context) (cartsvc.Service, error)
)

func tenantFromRequest(r *http.Request, logg *logger.Logger, w http.ResponseWriter) (*tenancy.Context, bool) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found for provided identifier"))
		return nil, false
	}
	return tenant, true
}
