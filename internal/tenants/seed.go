package tenants

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
)

func strPtr(s string) *string { return &s }

// seedSampleProducts populates a fresh tenant database with a small starter
// catalog so new storefronts have something to render.
func seedSampleProducts(ctx context.Context, db *gorm.DB) error {
	samples := []models.Product{
		{
			Name:           "Classic Tee",
			Slug:           "classic-tee",
			Description:    strPtr("A soft cotton tee in the shop's signature color."),
			Price:          decimal.NewFromFloat(19.99),
			SKU:            strPtr("SAMPLE-TEE-001"),
			AvailableQty:   100,
			TrackInventory: true,
			IsActive:       true,
			IsFeatured:     true,
		},
		{
			Name:           "Canvas Tote",
			Slug:           "canvas-tote",
			Description:    strPtr("A sturdy everyday tote bag."),
			Price:          decimal.NewFromFloat(24.50),
			SKU:            strPtr("SAMPLE-TOTE-001"),
			AvailableQty:   50,
			TrackInventory: true,
			IsActive:       true,
		},
		{
			Name:           "Gift Card",
			Slug:           "gift-card",
			Description:    strPtr("A digital gift card, delivered by email."),
			Price:          decimal.NewFromFloat(50.00),
			SKU:            strPtr("SAMPLE-GIFT-001"),
			TrackInventory: false,
			IsActive:       true,
		},
	}

	return db.WithContext(ctx).Create(&samples).Error
}
