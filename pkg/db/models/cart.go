package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopstack-backend/pkg/enums"
)

// Cart belongs to exactly one owner: a registered user or a guest session.
// The two columns are mutually exclusive; the service layer enforces it.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID       `gorm:"column:user_id;type:uuid;index"`
	SessionID *string          `gorm:"column:session_id;type:text;index"`
	Status    enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
