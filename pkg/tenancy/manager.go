package tenancy

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/db"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
	"github.com/angelmondragon/shopstack-backend/pkg/migrate"
	redisclient "github.com/angelmondragon/shopstack-backend/pkg/redis"
	"gorm.io/gorm"
)

// Manager owns per-tenant resources: the tenant database, the redis key
// namespace, and the filesystem namespace under the storage root. Tenant
// connections are opened lazily and cached.
type Manager struct {
	central *db.Client
	cache   *redisclient.Client
	logg    *logger.Logger

	driver      string
	centralDSN  string
	dbPrefix    string
	storageRoot string
	tenantDir   string

	mu    sync.Mutex
	conns map[string]*gorm.DB
}

// NewManager wires the resource manager against the central database client.
func NewManager(central *db.Client, cache *redisclient.Client, cfg *config.Config, logg *logger.Logger) (*Manager, error) {
	if central == nil {
		return nil, fmt.Errorf("central db client is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	return &Manager{
		central:     central,
		cache:       cache,
		logg:        logg,
		driver:      cfg.DB.Driver,
		centralDSN:  cfg.DB.DSN,
		dbPrefix:    cfg.Tenancy.DBPrefix,
		storageRoot: cfg.Storage.Root,
		tenantDir:   migrate.TenantDir,
		conns:       make(map[string]*gorm.DB),
	}, nil
}

// DatabaseName derives the tenant database name. Tenant ids usually already
// carry the prefix ("tenant_acme"); ids that do not get it prepended.
func (m *Manager) DatabaseName(tenantID string) string {
	if m.dbPrefix == "" || strings.HasPrefix(tenantID, m.dbPrefix+"_") {
		return tenantID
	}
	return m.dbPrefix + "_" + tenantID
}

// CreateDatabase creates the tenant database. CREATE DATABASE cannot run
// inside a transaction, so this is the non-atomic boundary of provisioning;
// callers compensate by dropping on later failure.
func (m *Manager) CreateDatabase(ctx context.Context, tenantID string) error {
	name := m.DatabaseName(tenantID)
	if m.driver == "sqlite" {
		// sqlite files appear on first open
		return os.MkdirAll(m.sqliteDir(), 0o755)
	}
	if err := m.central.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", quoteIdent(name))).Error; err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// DropDatabase removes the tenant database and evicts any cached connection.
func (m *Manager) DropDatabase(ctx context.Context, tenantID string) error {
	name := m.DatabaseName(tenantID)
	m.evict(tenantID)
	if m.driver == "sqlite" {
		err := os.Remove(m.sqlitePath(name))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove sqlite database %s: %w", name, err)
		}
		return nil
	}
	if err := m.central.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", quoteIdent(name))).Error; err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}

// Migrate applies the tenant migration set to the tenant database.
func (m *Manager) Migrate(ctx context.Context, tenantID string) error {
	conn, err := m.tenantDB(tenantID)
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	dialect := m.driver
	if dialect == "" {
		dialect = "postgres"
	}
	if err := migrate.Up(ctx, sqlDB, dialect, m.tenantDir); err != nil {
		return fmt.Errorf("migrating tenant %s: %w", tenantID, err)
	}
	return nil
}

// CreateStorage builds the tenant's filesystem namespace.
func (m *Manager) CreateStorage(tenantID string) error {
	dir := m.StorageDir(tenantID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return nil
}

// RemoveStorage deletes the tenant's filesystem namespace.
func (m *Manager) RemoveStorage(tenantID string) error {
	dir := m.StorageDir(tenantID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove storage dir %s: %w", dir, err)
	}
	return nil
}

// StorageDir returns the tenant's directory under the storage root.
func (m *Manager) StorageDir(tenantID string) string {
	return filepath.Join(m.storageRoot, "tenants", tenantID)
}

// FlushCache drops every cached redis key in the tenant's namespace.
func (m *Manager) FlushCache(ctx context.Context, tenantID string) error {
	return m.cache.FlushTenant(ctx, tenantID)
}

// Enter returns the resource handle for the tenant. The database connection
// is opened on first use and reused afterward.
func (m *Manager) Enter(ctx context.Context, tenantID string) (*Context, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, fmt.Errorf("tenant id is required")
	}
	conn, err := m.tenantDB(tenantID)
	if err != nil {
		return nil, err
	}
	return &Context{
		TenantID:   tenantID,
		DB:         conn,
		StorageDir: m.StorageDir(tenantID),
		cache:      m.cache,
	}, nil
}

// Close shuts down every cached tenant connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for id, conn := range m.conns {
		if sqlDB, err := conn.DB(); err == nil {
			if closeErr := sqlDB.Close(); closeErr != nil && firstErr == nil {
				firstErr = closeErr
			}
		}
		delete(m.conns, id)
	}
	return firstErr
}

func (m *Manager) tenantDB(tenantID string) (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.conns[tenantID]; ok {
		return conn, nil
	}

	dsn, err := m.tenantDSN(m.DatabaseName(tenantID))
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(m.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening tenant database for %s: %w", tenantID, err)
	}
	m.conns[tenantID] = conn
	return conn, nil
}

func (m *Manager) tenantDSN(dbName string) (string, error) {
	if m.driver == "sqlite" {
		return m.sqlitePath(dbName), nil
	}
	parsed, err := url.Parse(m.centralDSN)
	if err != nil {
		return "", fmt.Errorf("parsing central DSN: %w", err)
	}
	parsed.Path = "/" + dbName
	return parsed.String(), nil
}

func (m *Manager) evict(tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn, ok := m.conns[tenantID]; ok {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		delete(m.conns, tenantID)
	}
}

func (m *Manager) sqliteDir() string {
	return filepath.Join(m.storageRoot, "databases")
}

func (m *Manager) sqlitePath(dbName string) string {
	return filepath.Join(m.sqliteDir(), dbName+".db")
}

// quoteIdent wraps an identifier in double quotes; tenant ids are generated
// server-side but never interpolated bare.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
