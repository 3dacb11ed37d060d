package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopstack-backend/api/controllers"
	"github.com/angelmondragon/shopstack-backend/api/middleware"
	"github.com/angelmondragon/shopstack-backend/internal/tenants"
	"github.com/angelmondragon/shopstack-backend/pkg/auth/session"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
	"github.com/angelmondragon/shopstack-backend/pkg/metrics"
	"github.com/angelmondragon/shopstack-backend/pkg/redis"
	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type tenantResolver interface {
	ExtractIdentifier(getHeader func(string) string, host string) string
	Resolve(ctx context.Context, rawIdentifier string) (*models.Tenant, error)
}

type tenantEntrypoint interface {
	Enter(ctx context.Context, tenantID string) (*tenancy.Context, error)
}

// Deps bundles everything the router wires together.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Metrics        *metrics.HTTPMetrics
	Registry       *prometheus.Registry
	DB             pinger
	Redis          *redis.Client
	SessionManager *session.Manager
	Resolver       tenantResolver
	Entrypoint     tenantEntrypoint
	TenantService  tenants.Service
	AuthFactory    controllers.AuthServiceFactory
	ProductFactory controllers.ProductServiceFactory
	CartFactory    controllers.CartServiceFactory
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginLimit,
		cfg.AuthRateLimit.LoginLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterLimit,
		cfg.AuthRateLimit.RegisterLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	// Central tenant management. Guarded by the shared admin token; the
	// resolution middleware is intentionally absent here.
	r.Route("/api/admin/v1/tenants", func(r chi.Router) {
		r.Use(middleware.AdminToken(cfg.Admin, cfg.App.IsProd(), logg))
		r.Post("/", controllers.TenantCreate(d.TenantService, logg))
		r.Get("/", controllers.TenantList(d.TenantService, logg))
		r.Get("/by-domain/{domain}", controllers.TenantGetByDomain(d.TenantService, logg))
		r.Get("/{tenantId}", controllers.TenantGet(d.TenantService, logg))
		r.Patch("/{tenantId}", controllers.TenantUpdate(d.TenantService, logg))
		r.Delete("/{tenantId}", controllers.TenantDelete(d.TenantService, logg))
	})

	// Tenant storefront and account surface. Every route below resolves the
	// tenant from headers or the Host line.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.TenantResolution(d.Resolver, d.Entrypoint, logg))
		r.Use(middleware.RequireTenant(logg))
		r.Use(middleware.GuestSession())

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).
				Post("/register", controllers.AuthRegister(d.AuthFactory, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
				Post("/login", controllers.AuthLogin(d.AuthFactory, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.AuthFactory, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, d.SessionManager, logg))
				r.Post("/logout", controllers.AuthLogout(d.AuthFactory, logg))
				r.Get("/me", controllers.AuthMe(d.AuthFactory, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.ProductFactory, logg))
			r.Get("/featured", controllers.ProductFeatured(d.ProductFactory, logg))
			r.Get("/{idOrSlug}", controllers.ProductDetail(d.ProductFactory, logg))

			// Catalog writes, restricted to tenant admins.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, d.SessionManager, logg))
				r.Use(middleware.RequireRole("admin", logg))
				r.Post("/", controllers.ProductCreate(d.ProductFactory, logg))
				r.Put("/{productId}", controllers.ProductUpdate(d.ProductFactory, logg))
				r.Patch("/{productId}", controllers.ProductUpdate(d.ProductFactory, logg))
				r.Delete("/{productId}", controllers.ProductDelete(d.ProductFactory, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, d.SessionManager, logg))
			r.Get("/", controllers.CartFetch(d.CartFactory, logg))
			r.Delete("/clear", controllers.CartClear(d.CartFactory, logg))
			r.Post("/items", controllers.CartAddItem(d.CartFactory, logg))
			r.Put("/items/{itemId}", controllers.CartUpdateItem(d.CartFactory, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(d.CartFactory, logg))

			r.With(middleware.Auth(cfg.JWT, d.SessionManager, logg)).
				Post("/merge", controllers.CartMerge(d.CartFactory, logg))
		})
	})

	return r
}
