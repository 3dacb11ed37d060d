package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
)

// Repository encapsulates product persistence for one tenant database.
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

// ListActive returns active listings, newest first.
func (r *Repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListFeatured returns up to limit featured active listings.
func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Search matches active listings by name or description substring.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Product, error) {
	var items []models.Product
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("name ILIKE ? OR description ILIKE ?", pattern, pattern).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID loads a product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var item models.Product
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindBySlug loads a product by its unique slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var item models.Product
	if err := r.db.WithContext(ctx).First(&item, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDForUpdate locks the product row for the current transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var item models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SlugExists reports whether any listing (soft-deleted included) uses the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Product{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the provided product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves the provided product.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete soft-deletes the product.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}
