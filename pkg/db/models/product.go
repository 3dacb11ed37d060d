package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a tenant-scoped storefront listing.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string           `gorm:"column:name;not null"`
	Slug           string           `gorm:"column:slug;type:text;not null;uniqueIndex:uq_products_slug"`
	Description    *string          `gorm:"column:description"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	CompareAtPrice *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(12,2)"`
	SKU            *string          `gorm:"column:sku"`
	Barcode        *string          `gorm:"column:barcode"`
	AvailableQty   int              `gorm:"column:available_qty;not null;default:0"`
	TrackInventory bool             `gorm:"column:track_inventory;not null;default:true"`
	ContinueSell   bool             `gorm:"column:continue_selling;not null;default:false"`
	Images         pq.StringArray   `gorm:"column:images;type:text[]"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	IsFeatured     bool             `gorm:"column:is_featured;not null;default:false"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}

// Purchasable reports whether the requested quantity can be sold right now.
func (p Product) Purchasable(quantity int) bool {
	if !p.TrackInventory {
		return true
	}
	if p.AvailableQty >= quantity {
		return true
	}
	return p.ContinueSell
}
