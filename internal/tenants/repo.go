package tenants

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
)

// Repository encapsulates tenant directory persistence on the central database.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the tenant row.
func (r *Repository) Create(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

// FindByID loads a tenant with its domains.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Preload("Domains").
		First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ExistsID reports whether the id is already taken.
func (r *Repository) ExistsID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindFirstIDWithPrefix returns the first tenant id starting with the prefix.
func (r *Repository) FindFirstIDWithPrefix(ctx context.Context, prefix string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("id LIKE ?", prefix+"%").
		Order("id ASC").
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// List returns every tenant with domains preloaded, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.WithContext(ctx).
		Preload("Domains").
		Order("created_at DESC").
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

// Update saves the tenant row.
func (r *Repository) Update(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	if err := r.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

// Delete removes the tenant row; domains cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Tenant{}, "id = ?", id).Error
}

// DomainRepository encapsulates domain alias persistence.
type DomainRepository struct {
	db *gorm.DB
}

// NewDomainRepository binds the repository to the provided GORM handle.
func NewDomainRepository(db *gorm.DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *DomainRepository) WithTx(tx *gorm.DB) *DomainRepository {
	if tx == nil {
		return r
	}
	return &DomainRepository{db: tx}
}

// Create inserts a domain alias.
func (r *DomainRepository) Create(ctx context.Context, domain *models.Domain) (*models.Domain, error) {
	if err := r.db.WithContext(ctx).Create(domain).Error; err != nil {
		return nil, err
	}
	return domain, nil
}

// FindByDomain resolves an exact hostname to its alias row.
func (r *DomainRepository) FindByDomain(ctx context.Context, domain string) (*models.Domain, error) {
	var row models.Domain
	err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindFirstWithPrefix returns the first alias whose hostname starts with the
// prefix, ordered by hostname.
func (r *DomainRepository) FindFirstWithPrefix(ctx context.Context, prefix string) (*models.Domain, error) {
	var row models.Domain
	err := r.db.WithContext(ctx).
		Where("domain LIKE ?", prefix+"%").
		Order("domain ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByTenant returns every alias registered for the tenant.
func (r *DomainRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.Domain, error) {
	var rows []models.Domain
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes one alias.
func (r *DomainRepository) Delete(ctx context.Context, domain string) error {
	return r.db.WithContext(ctx).Delete(&models.Domain{}, "domain = ?", domain).Error
}
