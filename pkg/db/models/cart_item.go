package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopstack-backend/pkg/types"
)

// CartItem is one product line in a cart. The (cart_id, product_id) pair is
// unique; adding the same product again increments the existing line.
type CartItem struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID          uuid.UUID              `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:uq_cart_items_cart_product"`
	ProductID       uuid.UUID              `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_cart_items_cart_product"`
	Quantity        int                    `gorm:"column:quantity;not null"`
	Price           decimal.Decimal        `gorm:"column:price;type:numeric(12,2);not null"`
	Subtotal        decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ProductSnapshot *types.ProductSnapshot `gorm:"column:product_snapshot;type:jsonb;serializer:json"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
