package tenancy

import (
	"context"

	"gorm.io/gorm"
)

// Context is the explicit handle for one tenant's resources. It is passed as
// an argument everywhere tenant data is touched; there is no ambient tenant
// state.
type Context struct {
	TenantID   string
	DB         *gorm.DB
	StorageDir string

	cache cacheKeyer
}

type cacheKeyer interface {
	TenantKey(tenantID string, parts ...string) string
}

// CacheKey returns a redis key scoped to this tenant.
func (t *Context) CacheKey(parts ...string) string {
	if t == nil || t.cache == nil {
		return ""
	}
	return t.cache.TenantKey(t.TenantID, parts...)
}

// WithTx executes fn inside a transaction on the tenant database, rolling
// back on error/panic.
func (t *Context) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := t.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
