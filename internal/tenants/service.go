package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/internal/users"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/db"
	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
)

const maxIDAttempts = 50

// promotedAttributes are tenant fields stored in their own columns; they are
// stripped from the data bag so the columns stay the single source of truth.
var promotedAttributes = []string{
	"id", "name", "email", "phone", "address", "logo_url", "status", "plan",
}

type directoryRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
	ExistsID(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)
	Delete(ctx context.Context, id string) error
}

type aliasRepository interface {
	Create(ctx context.Context, domain *models.Domain) (*models.Domain, error)
	FindByDomain(ctx context.Context, domain string) (*models.Domain, error)
}

type resourceManager interface {
	CreateDatabase(ctx context.Context, tenantID string) error
	DropDatabase(ctx context.Context, tenantID string) error
	Migrate(ctx context.Context, tenantID string) error
	CreateStorage(tenantID string) error
	RemoveStorage(tenantID string) error
	FlushCache(ctx context.Context, tenantID string) error
	Enter(ctx context.Context, tenantID string) (*tenancy.Context, error)
}

type adminSeeder interface {
	EnsureAdmin(ctx context.Context, db *gorm.DB, input users.SeedAdminInput) (*users.SeedAdminResult, error)
}

// Service exposes the tenant directory and provisioning operations.
type Service interface {
	Create(ctx context.Context, input CreateTenantInput) (*ProvisionResult, error)
	Get(ctx context.Context, id string) (*TenantDTO, error)
	GetByDomain(ctx context.Context, domain string) (*TenantDTO, error)
	List(ctx context.Context) ([]TenantDTO, error)
	Update(ctx context.Context, id string, input UpdateTenantInput) (*TenantDTO, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	tenants   directoryRepository
	domains   aliasRepository
	resources resourceManager
	seeder    adminSeeder
	cfg       config.TenancyConfig
	isDev     bool
	logg      *logger.Logger
}

// NewService builds the tenant service backed by the provided stack.
func NewService(
	tenants directoryRepository,
	domains aliasRepository,
	resources resourceManager,
	seeder adminSeeder,
	cfg config.TenancyConfig,
	isDev bool,
	logg *logger.Logger,
) (Service, error) {
	if tenants == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	if domains == nil {
		return nil, fmt.Errorf("domain repository required")
	}
	if resources == nil {
		return nil, fmt.Errorf("resource manager required")
	}
	if seeder == nil {
		return nil, fmt.Errorf("admin seeder required")
	}
	return &service{
		tenants:   tenants,
		domains:   domains,
		resources: resources,
		seeder:    seeder,
		cfg:       cfg,
		isDev:     isDev,
		logg:      logg,
	}, nil
}

// Create provisions a tenant end to end: directory row, domain alias,
// database, migrations, storage namespace, and the initial admin account.
// Database creation cannot join the directory transaction, so any failure
// past the row insert triggers best-effort compensation that removes every
// resource already created.
func (s *service) Create(ctx context.Context, input CreateTenantInput) (*ProvisionResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant email is required")
	}
	if err := input.Data.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant data")
	}
	input.Data = input.Data.Without(promotedAttributes...)
	plan := input.Plan
	if plan == "" {
		plan = enums.TenantPlanBasic
	}
	if !plan.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tenant plan")
	}

	normalizedDomain := s.normalizeProvisionDomain(input.Domain)

	tenant, err := s.insertTenantRow(ctx, input, name, email, plan, normalizedDomain)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithTenantID(ctx, tenant.ID)
	}

	if normalizedDomain != "" {
		if _, err := s.domains.Create(ctx, &models.Domain{
			Domain:   normalizedDomain,
			TenantID: tenant.ID,
		}); err != nil {
			if db.IsUniqueViolation(err, "uq_domains_domain") {
				return nil, s.compensate(ctx, tenant.ID, "register_domain",
					pkgerrors.New(pkgerrors.CodeConflict, "domain is already registered"))
			}
			return nil, s.compensate(ctx, tenant.ID, "register_domain", err)
		}
	}

	if err := s.resources.CreateDatabase(ctx, tenant.ID); err != nil {
		return nil, s.compensate(ctx, tenant.ID, "create_database", err)
	}
	if err := s.resources.Migrate(ctx, tenant.ID); err != nil {
		return nil, s.compensate(ctx, tenant.ID, "migrate_database", err)
	}
	if err := s.resources.CreateStorage(tenant.ID); err != nil {
		return nil, s.compensate(ctx, tenant.ID, "create_storage", err)
	}

	adminEmail := strings.ToLower(strings.TrimSpace(input.AdminEmail))
	if adminEmail == "" {
		adminEmail = email
	}

	tctx, err := s.resources.Enter(ctx, tenant.ID)
	if err != nil {
		return nil, s.compensate(ctx, tenant.ID, "enter_tenant", err)
	}

	if input.SeedData {
		if err := seedSampleProducts(ctx, tctx.DB); err != nil {
			return nil, s.compensate(ctx, tenant.ID, "seed_data", err)
		}
	}

	seeded, err := s.seeder.EnsureAdmin(ctx, tctx.DB, users.SeedAdminInput{
		Email:     adminEmail,
		FirstName: name,
		Password:  input.AdminPassword,
	})
	if err != nil {
		return nil, s.compensate(ctx, tenant.ID, "seed_admin", err)
	}

	loaded, err := s.tenants.FindByID(ctx, tenant.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload tenant")
	}

	if s.logg != nil {
		s.logg.Info(ctx, "tenant provisioned")
	}

	result := &ProvisionResult{Tenant: FromModel(loaded)}
	if seeded.Generated {
		result.AdminEmail = adminEmail
		result.AdminPassword = seeded.Password
	}
	return result, nil
}

// insertTenantRow resolves a unique tenant id and inserts the directory row.
// A concurrent insert taking the same id surfaces as a unique violation and
// restarts the disambiguation loop instead of failing the request.
func (s *service) insertTenantRow(
	ctx context.Context,
	input CreateTenantInput,
	name, email string,
	plan enums.TenantPlan,
	normalizedDomain string,
) (*models.Tenant, error) {
	explicit := strings.TrimSpace(input.ID)
	if explicit != "" {
		tenant, err := s.tryInsert(ctx, explicit, input, name, email, plan)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "tenant id is already taken")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tenant")
		}
		return tenant, nil
	}

	base := s.baseTenantID(normalizedDomain)

	candidate := base
	counter := 1
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		exists, err := s.tenants.ExistsID(ctx, candidate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check tenant id")
		}
		if !exists {
			tenant, err := s.tryInsert(ctx, candidate, input, name, email, plan)
			if err == nil {
				return tenant, nil
			}
			if !db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tenant")
			}
			// someone took the id between the check and the insert
		}
		candidate = fmt.Sprintf("%s_%d", base, counter)
		counter++
	}

	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique tenant id")
}

func (s *service) tryInsert(
	ctx context.Context,
	id string,
	input CreateTenantInput,
	name, email string,
	plan enums.TenantPlan,
) (*models.Tenant, error) {
	return s.tenants.Create(ctx, &models.Tenant{
		ID:      id,
		Name:    name,
		Email:   email,
		Phone:   input.Phone,
		Address: input.Address,
		LogoURL: input.LogoURL,
		Status:  enums.TenantStatusActive,
		Plan:    plan,
		Data:    input.Data,
	})
}

func (s *service) baseTenantID(normalizedDomain string) string {
	if normalizedDomain != "" {
		if slug := SlugifyID(normalizedDomain); slug != "" {
			return "tenant_" + slug
		}
	}
	return "tenant_" + uuid.NewString()
}

// compensate tears down everything provisioned so far and returns a
// dependency error naming the failed step. Cleanup failures are attached to
// the original error, never swallowed.
func (s *service) compensate(ctx context.Context, tenantID, step string, cause error) error {
	combined := cause

	if err := s.resources.DropDatabase(ctx, tenantID); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("drop database: %w", err))
	}
	if err := s.resources.RemoveStorage(tenantID); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("remove storage: %w", err))
	}
	if err := s.resources.FlushCache(ctx, tenantID); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("flush cache: %w", err))
	}
	if err := s.tenants.Delete(ctx, tenantID); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("delete tenant row: %w", err))
	}

	if s.logg != nil {
		s.logg.Error(ctx, "tenant provisioning failed, resources rolled back", combined)
	}

	if typed := pkgerrors.As(cause); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "tenant provisioning failed").
		WithDetails(map[string]any{"step": step})
}

func (s *service) Get(ctx context.Context, id string) (*TenantDTO, error) {
	tenant, err := s.tenants.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
	}
	return FromModel(tenant), nil
}

func (s *service) GetByDomain(ctx context.Context, domain string) (*TenantDTO, error) {
	normalized := NormalizeIdentifier(domain)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "domain is required")
	}

	row, err := s.domains.FindByDomain(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup domain")
	}
	return s.Get(ctx, row.TenantID)
}

func (s *service) List(ctx context.Context) ([]TenantDTO, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tenants")
	}
	return FromModels(tenants), nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateTenantInput) (*TenantDTO, error) {
	tenant, err := s.tenants.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant name cannot be empty")
		}
		tenant.Name = name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant email cannot be empty")
		}
		tenant.Email = email
	}
	if input.Phone != nil {
		tenant.Phone = input.Phone
	}
	if input.Address != nil {
		tenant.Address = input.Address
	}
	if input.LogoURL != nil {
		tenant.LogoURL = input.LogoURL
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tenant status")
		}
		tenant.Status = *input.Status
	}
	if input.Plan != nil {
		if !input.Plan.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tenant plan")
		}
		tenant.Plan = *input.Plan
	}
	if input.Data != nil {
		if err := input.Data.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant data")
		}
		tenant.Data = input.Data.Without(promotedAttributes...)
	}

	updated, err := s.tenants.Update(ctx, tenant)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tenant")
	}
	return FromModel(updated), nil
}

// Delete deprovisions the tenant: database, storage, cache namespace, and
// finally the directory row (domains cascade).
func (s *service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if _, err := s.tenants.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
	}

	var combined error
	if err := s.resources.DropDatabase(ctx, id); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("drop database: %w", err))
	}
	if err := s.resources.RemoveStorage(id); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("remove storage: %w", err))
	}
	if err := s.resources.FlushCache(ctx, id); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("flush cache: %w", err))
	}
	if err := s.tenants.Delete(ctx, id); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("delete tenant row: %w", err))
	}

	if combined != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "tenant deletion incomplete")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithTenantID(ctx, id), "tenant deleted")
	}
	return nil
}

// normalizeProvisionDomain canonicalizes the requested domain and, for bare
// names, appends the configured suffix (or a sensible dev fallback) so every
// alias stored is a full hostname.
func (s *service) normalizeProvisionDomain(domain string) string {
	normalized := NormalizeIdentifier(domain)
	if normalized == "" {
		return ""
	}

	if !strings.Contains(normalized, ".") && s.shouldAppendSuffix() {
		normalized += "." + s.domainSuffix()
	}
	return normalized
}

func (s *service) shouldAppendSuffix() bool {
	return strings.TrimSpace(s.cfg.DomainSuffix) != "" || s.isDev
}

func (s *service) domainSuffix() string {
	if configured := strings.TrimSpace(s.cfg.DomainSuffix); configured != "" {
		return configured
	}
	for _, domain := range s.cfg.CentralDomains {
		trimmed := strings.TrimSpace(domain)
		if trimmed != "" && trimmed != "127.0.0.1" {
			return trimmed
		}
	}
	return "localhost"
}
