package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
)

// Repository encapsulates cart persistence for one tenant database.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActiveByOwner returns the owner's active cart with items preloaded.
func (r *Repository) FindActiveByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	var cart models.Cart
	err := ownerScope(r.db.WithContext(ctx), owner).
		Preload("Items").
		Where("status = ?", enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindActiveByOwnerForUpdate locks the owner's active cart row so concurrent
// mutations for one owner serialize. Items are loaded after the lock.
func (r *Repository) FindActiveByOwnerForUpdate(ctx context.Context, owner Owner) (*models.Cart, error) {
	var cart models.Cart
	err := ownerScope(r.db.WithContext(ctx), owner).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ?", enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Order("created_at ASC").
		Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new active cart for the owner.
func (r *Repository) Create(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart := &models.Cart{
		UserID:    owner.UserID(),
		SessionID: owner.SessionID(),
		Status:    enums.CartStatusActive,
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindItemByProduct returns the cart line for the product, if present.
func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItem returns the cart line by id, scoped to the cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem saves a cart line.
func (r *Repository) UpdateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes one cart line.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{}).Error
}

// DeleteItems removes every line in the cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// UpdateStatus moves the cart into the provided status.
func (r *Repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

func ownerScope(db *gorm.DB, owner Owner) *gorm.DB {
	if userID := owner.UserID(); userID != nil {
		return db.Where("user_id = ?", *userID)
	}
	return db.Where("session_id = ?", *owner.SessionID())
}
