package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	"github.com/angelmondragon/shopstack-backend/pkg/types"
)

// CartDTO is the transport shape of a cart. Totals are derived from the
// lines on every read, never stored.
type CartDTO struct {
	ID            uuid.UUID        `json:"id"`
	UserID        *uuid.UUID       `json:"user_id,omitempty"`
	SessionID     *string          `json:"session_id,omitempty"`
	Status        enums.CartStatus `json:"status"`
	Items         []CartItemDTO    `json:"items"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	TotalQuantity int              `json:"total_quantity"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// CartItemDTO is one line of a cart.
type CartItemDTO struct {
	ID              uuid.UUID              `json:"id"`
	ProductID       uuid.UUID              `json:"product_id"`
	Quantity        int                    `json:"quantity"`
	Price           decimal.Decimal        `json:"price"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	ProductSnapshot *types.ProductSnapshot `json:"product_snapshot,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// FromModel maps a cart with its lines and computes derived totals.
func FromModel(c *models.Cart) *CartDTO {
	if c == nil {
		return nil
	}

	items := make([]CartItemDTO, 0, len(c.Items))
	subtotal := decimal.Zero
	totalQty := 0
	for i := range c.Items {
		item := &c.Items[i]
		items = append(items, CartItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			Price:           item.Price,
			Subtotal:        item.Subtotal,
			ProductSnapshot: item.ProductSnapshot,
			CreatedAt:       item.CreatedAt,
			UpdatedAt:       item.UpdatedAt,
		})
		subtotal = subtotal.Add(item.Subtotal)
		totalQty += item.Quantity
	}

	return &CartDTO{
		ID:            c.ID,
		UserID:        c.UserID,
		SessionID:     c.SessionID,
		Status:        c.Status,
		Items:         items,
		Subtotal:      subtotal,
		TotalQuantity: totalQty,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
