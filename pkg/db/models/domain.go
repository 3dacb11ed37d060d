package models

import (
	"time"

	"github.com/google/uuid"
)

// Domain maps an inbound hostname to a tenant. The domain column is unique
// across the whole table so a hostname can never resolve to two tenants.
type Domain struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Domain    string    `gorm:"column:domain;type:text;not null;uniqueIndex:uq_domains_domain"`
	TenantID  string    `gorm:"column:tenant_id;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
