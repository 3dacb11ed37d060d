package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/shopstack-backend/api/routes"
	authsvc "github.com/angelmondragon/shopstack-backend/internal/auth"
	cartsvc "github.com/angelmondragon/shopstack-backend/internal/cart"
	productsvc "github.com/angelmondragon/shopstack-backend/internal/products"
	"github.com/angelmondragon/shopstack-backend/internal/tenants"
	"github.com/angelmondragon/shopstack-backend/internal/users"
	"github.com/angelmondragon/shopstack-backend/pkg/auth/session"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/db"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
	"github.com/angelmondragon/shopstack-backend/pkg/metrics"
	"github.com/angelmondragon/shopstack-backend/pkg/migrate"
	"github.com/angelmondragon/shopstack-backend/pkg/redis"
	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	manager, err := tenancy.NewManager(dbClient, redisClient, cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenancy manager", err)
		os.Exit(1)
	}
	defer manager.Close()

	tenantRepo := tenants.NewRepository(dbClient.DB())
	domainRepo := tenants.NewDomainRepository(dbClient.DB())

	resolver, err := tenants.NewResolver(tenantRepo, domainRepo, cfg.Tenancy)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant resolver", err)
		os.Exit(1)
	}

	tenantService, err := tenants.NewService(
		tenantRepo,
		domainRepo,
		manager,
		users.NewSeeder(cfg.Password),
		cfg.Tenancy,
		cfg.App.IsDev(),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	authFactory := func(t *tenancy.Context) (authsvc.Service, error) {
		return authsvc.NewService(authsvc.ServiceParams{
			UserRepo:       users.NewRepository(t.DB),
			SessionManager: sessionManager,
			JWTConfig:      cfg.JWT,
			PasswordConfig: cfg.Password,
			TenantID:       t.TenantID,
		})
	}
	productFactory := func(t *tenancy.Context) (productsvc.Service, error) {
		return productsvc.NewService(productsvc.NewRepository(t.DB))
	}
	cartFactory := func(t *tenancy.Context) (cartsvc.Service, error) {
		return cartsvc.NewService(cartsvc.NewRepository(t.DB), t, productsvc.NewRepository(t.DB))
	}

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			Metrics:        httpMetrics,
			Registry:       registry,
			DB:             dbClient,
			Redis:          redisClient,
			SessionManager: sessionManager,
			Resolver:       resolver,
			Entrypoint:     manager,
			TenantService:  tenantService,
			AuthFactory:    authFactory,
			ProductFactory: productFactory,
			CartFactory:    cartFactory,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
