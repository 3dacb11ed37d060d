package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/shopstack-backend/internal/tenants"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/db"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
	"github.com/angelmondragon/shopstack-backend/pkg/migrate"
	"github.com/angelmondragon/shopstack-backend/pkg/redis"
	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	set := flag.String("set", "central", "migration set: central|tenant")
	tenantID := flag.String("tenant", "", "tenant id (tenant set only; empty applies to every tenant)")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	flag.Parse()

	dir := migrate.CentralDir
	if *set == "tenant" {
		dir = migrate.TenantDir
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"set": *set,
		"dir": dir,
	})

	// Commands that do NOT require DB
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	logg.Info(ctx, "migrate ready")

	if *set == "tenant" {
		migrateTenants(ctx, logg, cfg, dbClient, *tenantID)
		return
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, cfg.DB.Driver, dir, *cmd); err != nil {
			fmt.Fprintf(os.Stderr, "goose %s failed: %v\n", *cmd, err)
			os.Exit(1)
		}

	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, cfg.DB.Driver, dir, *version); err != nil {
			fmt.Fprintf(os.Stderr, "goose version migrate failed: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

// migrateTenants applies the tenant migration set to one tenant database, or
// to every registered tenant when no id is given.
func migrateTenants(ctx context.Context, logg *logger.Logger, cfg *config.Config, dbClient *db.Client, tenantID string) {
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	manager, err := tenancy.NewManager(dbClient, redisClient, cfg, logg)
	requireResource(ctx, logg, "tenancy manager", err)
	defer manager.Close()

	ids := []string{tenantID}
	if tenantID == "" {
		all, err := tenants.NewRepository(dbClient.DB()).List(ctx)
		requireResource(ctx, logg, "tenant directory", err)
		ids = ids[:0]
		for _, t := range all {
			ids = append(ids, t.ID)
		}
	}

	for _, id := range ids {
		tctx := logg.WithTenantID(ctx, id)
		if err := manager.Migrate(ctx, id); err != nil {
			logg.Error(tctx, "tenant migration failed", err)
			os.Exit(1)
		}
		logg.Info(tctx, "tenant migrated")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
