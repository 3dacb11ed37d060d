package models

import (
	"time"

	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	"github.com/angelmondragon/shopstack-backend/pkg/types"
)

// Tenant is a central-directory row. The ID doubles as the per-tenant
// database name suffix, so it is a caller-visible string, not a uuid.
type Tenant struct {
	ID        string             `gorm:"column:id;type:text;primaryKey"`
	Name      string             `gorm:"column:name;not null"`
	Email     string             `gorm:"column:email;not null"`
	Phone     *string            `gorm:"column:phone"`
	Address   *string            `gorm:"column:address"`
	LogoURL   *string            `gorm:"column:logo_url"`
	Status    enums.TenantStatus `gorm:"column:status;not null;default:'active'"`
	Plan      enums.TenantPlan   `gorm:"column:plan;not null;default:'basic'"`
	Data      types.AttributeBag `gorm:"column:data;type:jsonb;serializer:json"`
	Domains   []Domain           `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
