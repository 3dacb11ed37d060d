package types

import "github.com/shopspring/decimal"

// ProductSnapshot freezes the product facts a cart line was priced against.
type ProductSnapshot struct {
	Name  string          `json:"name"`
	Slug  string          `json:"slug"`
	SKU   *string         `json:"sku,omitempty"`
	Price decimal.Decimal `json:"price"`
	Image *string         `json:"image,omitempty"`
}
