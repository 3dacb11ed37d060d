package tenants

import (
	"time"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	"github.com/angelmondragon/shopstack-backend/pkg/types"
)

// TenantDTO is the transport shape of a directory entry.
type TenantDTO struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Phone     *string            `json:"phone,omitempty"`
	Address   *string            `json:"address,omitempty"`
	LogoURL   *string            `json:"logo_url,omitempty"`
	Status    enums.TenantStatus `json:"status"`
	Plan      enums.TenantPlan   `json:"plan"`
	Data      types.AttributeBag `json:"data,omitempty"`
	Domains   []string           `json:"domains"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CreateTenantInput captures the provisioning payload.
type CreateTenantInput struct {
	ID         string
	Name       string
	Email      string
	Phone      *string
	Address    *string
	LogoURL    *string
	Domain     string
	Plan       enums.TenantPlan
	Data       types.AttributeBag
	AdminEmail string
	// AdminPassword sets the admin credentials instead of generating them;
	// for an existing admin account it rotates the password.
	AdminPassword string
	SeedData      bool
}

// UpdateTenantInput carries partial updates; nil fields stay untouched.
type UpdateTenantInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	LogoURL *string
	Status  *enums.TenantStatus
	Plan    *enums.TenantPlan
	Data    types.AttributeBag
}

// ProvisionResult is returned once from CreateTenant. AdminPassword is only
// populated when a fresh admin account was created and cannot be recovered
// afterwards.
type ProvisionResult struct {
	Tenant        *TenantDTO `json:"tenant"`
	AdminEmail    string     `json:"admin_email,omitempty"`
	AdminPassword string     `json:"admin_password,omitempty"`
}

func FromModel(t *models.Tenant) *TenantDTO {
	if t == nil {
		return nil
	}

	domains := make([]string, 0, len(t.Domains))
	for _, domain := range t.Domains {
		domains = append(domains, domain.Domain)
	}

	return &TenantDTO{
		ID:        t.ID,
		Name:      t.Name,
		Email:     t.Email,
		Phone:     t.Phone,
		Address:   t.Address,
		LogoURL:   t.LogoURL,
		Status:    t.Status,
		Plan:      t.Plan,
		Data:      t.Data,
		Domains:   domains,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func FromModels(items []models.Tenant) []TenantDTO {
	out := make([]TenantDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
