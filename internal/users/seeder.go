package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/security"
	"gorm.io/gorm"
)

const tempPasswordLength = 12

// SeedAdminInput identifies the tenant admin account to ensure. Password is
// optional; when empty a one-time password is generated for fresh accounts.
type SeedAdminInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// SeedAdminResult reports the admin account state after seeding. Password is
// only set when one was generated; it is never recoverable later.
type SeedAdminResult struct {
	User      *UserDTO
	Password  string
	Generated bool
}

// Seeder provisions the initial admin account inside a tenant database.
type Seeder struct {
	passwordCfg config.PasswordConfig
}

// NewSeeder builds an admin seeder with the given hashing parameters.
func NewSeeder(passwordCfg config.PasswordConfig) *Seeder {
	return &Seeder{passwordCfg: passwordCfg}
}

// EnsureAdmin creates the admin user, or promotes an existing account with
// the same email to admin. A supplied password is used as-is (and rotates an
// existing admin's credentials); otherwise fresh accounts get a one-time
// generated password.
func (s *Seeder) EnsureAdmin(ctx context.Context, db *gorm.DB, input SeedAdminInput) (*SeedAdminResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin email is required")
	}
	supplied := input.Password
	if supplied != "" && len(supplied) < s.passwordCfg.MinPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin password is too short").
			WithDetails(map[string]any{"min_length": s.passwordCfg.MinPasswordLength})
	}

	repo := NewRepository(db)

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup admin user")
	}

	if existing != nil {
		if existing.Role != enums.UserRoleAdmin {
			if err := db.WithContext(ctx).
				Model(existing).
				UpdateColumn("role", enums.UserRoleAdmin).Error; err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote admin user")
			}
			existing.Role = enums.UserRoleAdmin
		}
		if supplied != "" {
			hash, err := security.HashPassword(supplied, s.passwordCfg)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
			}
			if err := repo.UpdatePassword(ctx, existing.ID, hash); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate admin password")
			}
		}
		return &SeedAdminResult{User: FromModel(existing)}, nil
	}

	password := supplied
	generated := false
	if password == "" {
		password, err = security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate admin password")
		}
		generated = true
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}

	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		firstName = "Admin"
	}
	lastName := strings.TrimSpace(input.LastName)
	if lastName == "" {
		lastName = "User"
	}

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         enums.UserRoleAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("create admin user: %w", err), "create admin user")
	}

	result := &SeedAdminResult{User: FromModel(created), Generated: generated}
	if generated {
		result.Password = password
	}
	return result, nil
}
