package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
)

// ProductDTO is the transport shape of a storefront listing.
type ProductDTO struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    *string          `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	SKU            *string          `json:"sku,omitempty"`
	Barcode        *string          `json:"barcode,omitempty"`
	AvailableQty   int              `json:"available_qty"`
	TrackInventory bool             `json:"track_inventory"`
	ContinueSell   bool             `json:"continue_selling"`
	Images         []string         `json:"images"`
	IsActive       bool             `json:"is_active"`
	IsFeatured     bool             `json:"is_featured"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreateProductInput captures admin-provided fields for a new listing.
type CreateProductInput struct {
	Name           string
	Description    *string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	SKU            *string
	Barcode        *string
	AvailableQty   int
	TrackInventory *bool
	ContinueSell   bool
	Images         []string
	IsActive       *bool
	IsFeatured     bool
}

// UpdateProductInput carries partial updates; nil fields stay untouched.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	SKU            *string
	Barcode        *string
	AvailableQty   *int
	TrackInventory *bool
	ContinueSell   *bool
	Images         []string
	IsActive       *bool
	IsFeatured     *bool
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		SKU:            p.SKU,
		Barcode:        p.Barcode,
		AvailableQty:   p.AvailableQty,
		TrackInventory: p.TrackInventory,
		ContinueSell:   p.ContinueSell,
		Images:         append([]string(nil), p.Images...),
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func FromModels(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
