package cart

import (
	"context"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveByOwner(ctx context.Context, owner Owner) (*models.Cart, error)
	FindActiveByOwnerForUpdate(ctx context.Context, owner Owner) (*models.Cart, error)
	Create(ctx context.Context, owner Owner) (*models.Cart, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
}
