package auth

import (
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	TenantID string
	Role     enums.UserRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. TenantID pins
// the token to the tenant that minted it.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	TenantID string         `json:"tenant_id"`
	Role     enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
