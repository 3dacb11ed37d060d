package tenants

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/internal/users"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
	"github.com/angelmondragon/shopstack-backend/pkg/types"
)

type stubDirectory struct {
	rows map[string]*models.Tenant
}

func newStubDirectory(ids ...string) *stubDirectory {
	rows := make(map[string]*models.Tenant, len(ids))
	for _, id := range ids {
		rows[id] = &models.Tenant{ID: id, Status: enums.TenantStatusActive}
	}
	return &stubDirectory{rows: rows}
}

func (s *stubDirectory) Create(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	if _, exists := s.rows[tenant.ID]; exists {
		return nil, errors.New(`duplicate key value violates unique constraint "tenants_pkey"`)
	}
	copied := *tenant
	s.rows[tenant.ID] = &copied
	return &copied, nil
}

func (s *stubDirectory) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	if tenant, ok := s.rows[id]; ok {
		return tenant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubDirectory) ExistsID(ctx context.Context, id string) (bool, error) {
	_, ok := s.rows[id]
	return ok, nil
}

func (s *stubDirectory) List(ctx context.Context) ([]models.Tenant, error) {
	out := make([]models.Tenant, 0, len(s.rows))
	for _, tenant := range s.rows {
		out = append(out, *tenant)
	}
	return out, nil
}

func (s *stubDirectory) Update(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	s.rows[tenant.ID] = tenant
	return tenant, nil
}

func (s *stubDirectory) Delete(ctx context.Context, id string) error {
	delete(s.rows, id)
	return nil
}

type stubAliases struct {
	domains map[string]*models.Domain
}

func newStubAliases() *stubAliases {
	return &stubAliases{domains: make(map[string]*models.Domain)}
}

func (s *stubAliases) Create(ctx context.Context, domain *models.Domain) (*models.Domain, error) {
	if _, exists := s.domains[domain.Domain]; exists {
		return nil, errors.New(`duplicate key value violates unique constraint "uq_domains_domain"`)
	}
	s.domains[domain.Domain] = domain
	return domain, nil
}

func (s *stubAliases) FindByDomain(ctx context.Context, domain string) (*models.Domain, error) {
	if row, ok := s.domains[domain]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubResources struct {
	fail map[string]error

	databasesCreated []string
	databasesDropped []string
	migrated         []string
	storageCreated   []string
	storageRemoved   []string
	cachesFlushed    []string
}

func newStubResources() *stubResources {
	return &stubResources{fail: make(map[string]error)}
}

func (s *stubResources) CreateDatabase(ctx context.Context, tenantID string) error {
	if err := s.fail["create_database"]; err != nil {
		return err
	}
	s.databasesCreated = append(s.databasesCreated, tenantID)
	return nil
}

func (s *stubResources) DropDatabase(ctx context.Context, tenantID string) error {
	s.databasesDropped = append(s.databasesDropped, tenantID)
	return nil
}

func (s *stubResources) Migrate(ctx context.Context, tenantID string) error {
	if err := s.fail["migrate_database"]; err != nil {
		return err
	}
	s.migrated = append(s.migrated, tenantID)
	return nil
}

func (s *stubResources) CreateStorage(tenantID string) error {
	if err := s.fail["create_storage"]; err != nil {
		return err
	}
	s.storageCreated = append(s.storageCreated, tenantID)
	return nil
}

func (s *stubResources) RemoveStorage(tenantID string) error {
	s.storageRemoved = append(s.storageRemoved, tenantID)
	return nil
}

func (s *stubResources) FlushCache(ctx context.Context, tenantID string) error {
	s.cachesFlushed = append(s.cachesFlushed, tenantID)
	return nil
}

func (s *stubResources) Enter(ctx context.Context, tenantID string) (*tenancy.Context, error) {
	if err := s.fail["enter_tenant"]; err != nil {
		return nil, err
	}
	return &tenancy.Context{TenantID: tenantID}, nil
}

type stubSeeder struct {
	result    *users.SeedAdminResult
	err       error
	lastInput users.SeedAdminInput
}

func (s *stubSeeder) EnsureAdmin(ctx context.Context, db *gorm.DB, input users.SeedAdminInput) (*users.SeedAdminResult, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &users.SeedAdminResult{Password: "temp-password", Generated: true}, nil
}

func testTenancyConfig() config.TenancyConfig {
	return config.TenancyConfig{
		CentralDomains: []string{"localhost", "127.0.0.1"},
		DomainSuffix:   "shopstack.dev",
		DBPrefix:       "tenant",
		CachePrefix:    "tenant",
	}
}

func newTestService(t *testing.T, dir *stubDirectory, aliases *stubAliases, resources *stubResources, seeder *stubSeeder) Service {
	t.Helper()
	svc, err := NewService(dir, aliases, resources, seeder, testTenancyConfig(), false, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateProvisionsTenant(t *testing.T) {
	dir := newStubDirectory()
	aliases := newStubAliases()
	resources := newStubResources()
	seeder := &stubSeeder{}
	svc := newTestService(t, dir, aliases, resources, seeder)

	result, err := svc.Create(context.Background(), CreateTenantInput{
		Name:   "Acme Store",
		Email:  "Owner@Acme.COM",
		Domain: "acme",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	wantID := "tenant_acme_shopstack_dev"
	if result.Tenant.ID != wantID {
		t.Fatalf("expected tenant id %q, got %q", wantID, result.Tenant.ID)
	}
	if _, ok := aliases.domains["acme.shopstack.dev"]; !ok {
		t.Fatalf("expected domain alias registered, got %v", aliases.domains)
	}
	for name, calls := range map[string][]string{
		"create database": resources.databasesCreated,
		"migrate":         resources.migrated,
		"create storage":  resources.storageCreated,
	} {
		if len(calls) != 1 || calls[0] != wantID {
			t.Fatalf("expected one %s call for %s, got %v", name, wantID, calls)
		}
	}
	if seeder.lastInput.Email != "owner@acme.com" {
		t.Fatalf("admin email should default to the lowered tenant email, got %q", seeder.lastInput.Email)
	}
	if result.AdminPassword != "temp-password" || result.AdminEmail != "owner@acme.com" {
		t.Fatalf("expected one-time admin credentials, got %+v", result)
	}
}

func TestCreateStripsPromotedDataKeys(t *testing.T) {
	dir := newStubDirectory()
	svc := newTestService(t, dir, newStubAliases(), newStubResources(), &stubSeeder{})

	result, err := svc.Create(context.Background(), CreateTenantInput{
		Name:   "Acme",
		Email:  "owner@acme.com",
		Domain: "acme",
		Data: types.AttributeBag{
			"email": "shadow@acme.com",
			"name":  "Shadow Name",
			"theme": "dark",
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored := dir.rows[result.Tenant.ID]
	if stored == nil {
		t.Fatalf("tenant row missing from directory")
	}
	for _, key := range []string{"email", "name"} {
		if _, ok := stored.Data[key]; ok {
			t.Fatalf("column-backed key %q must not survive in the data bag, got %v", key, stored.Data)
		}
	}
	if stored.Data["theme"] != "dark" {
		t.Fatalf("custom key should survive, got %v", stored.Data)
	}
	if stored.Email != "owner@acme.com" {
		t.Fatalf("column value must come from the input field, got %q", stored.Email)
	}
}

func TestUpdateStripsPromotedDataKeys(t *testing.T) {
	dir := newStubDirectory("tenant_acme")
	svc := newTestService(t, dir, newStubAliases(), newStubResources(), &stubSeeder{})

	updated, err := svc.Update(context.Background(), "tenant_acme", UpdateTenantInput{
		Data: types.AttributeBag{"status": "inactive", "theme": "light"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := updated.Data["status"]; ok {
		t.Fatalf("column-backed key must not survive in the data bag, got %v", updated.Data)
	}
	if updated.Data["theme"] != "light" {
		t.Fatalf("custom key should survive, got %v", updated.Data)
	}
	if updated.Status != enums.TenantStatusActive {
		t.Fatalf("data bag must not drive the status column, got %q", updated.Status)
	}
}

func TestCreateForwardsAdminPassword(t *testing.T) {
	seeder := &stubSeeder{result: &users.SeedAdminResult{Generated: false}}
	svc := newTestService(t, newStubDirectory(), newStubAliases(), newStubResources(), seeder)

	result, err := svc.Create(context.Background(), CreateTenantInput{
		Name:          "Acme",
		Email:         "owner@acme.com",
		Domain:        "acme",
		AdminPassword: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if seeder.lastInput.Password != "hunter2hunter2" {
		t.Fatalf("supplied admin password not forwarded, got %q", seeder.lastInput.Password)
	}
	if result.AdminPassword != "" {
		t.Fatalf("supplied passwords must never be echoed back, got %+v", result)
	}
}

func TestCreateDisambiguatesTenantID(t *testing.T) {
	dir := newStubDirectory("tenant_acme_shopstack_dev", "tenant_acme_shopstack_dev_1")
	svc := newTestService(t, dir, newStubAliases(), newStubResources(), &stubSeeder{})

	result, err := svc.Create(context.Background(), CreateTenantInput{
		Name:   "Acme",
		Email:  "owner@acme.com",
		Domain: "acme",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Tenant.ID != "tenant_acme_shopstack_dev_2" {
		t.Fatalf("expected disambiguated id, got %q", result.Tenant.ID)
	}
}

func TestCreateExplicitIDConflict(t *testing.T) {
	dir := newStubDirectory("tenant_taken")
	svc := newTestService(t, dir, newStubAliases(), newStubResources(), &stubSeeder{})

	_, err := svc.Create(context.Background(), CreateTenantInput{
		ID:    "tenant_taken",
		Name:  "Acme",
		Email: "owner@acme.com",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for explicit id, got %v", err)
	}
}

func TestCreateDomainConflictCompensates(t *testing.T) {
	dir := newStubDirectory()
	aliases := newStubAliases()
	aliases.domains["acme.shopstack.dev"] = &models.Domain{Domain: "acme.shopstack.dev", TenantID: "tenant_other"}
	resources := newStubResources()
	svc := newTestService(t, dir, aliases, resources, &stubSeeder{})

	_, err := svc.Create(context.Background(), CreateTenantInput{
		Name:   "Acme",
		Email:  "owner@acme.com",
		Domain: "acme",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for taken domain, got %v", err)
	}
	if len(dir.rows) != 0 {
		t.Fatalf("directory row should be rolled back, got %v", dir.rows)
	}
	if len(resources.databasesDropped) != 1 || len(resources.storageRemoved) != 1 || len(resources.cachesFlushed) != 1 {
		t.Fatalf("expected full teardown, got %+v", resources)
	}
}

func TestCreateDatabaseFailureCompensates(t *testing.T) {
	dir := newStubDirectory()
	resources := newStubResources()
	resources.fail["create_database"] = errors.New("connection refused")
	svc := newTestService(t, dir, newStubAliases(), resources, &stubSeeder{})

	_, err := svc.Create(context.Background(), CreateTenantInput{
		Name:   "Acme",
		Email:  "owner@acme.com",
		Domain: "acme",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(dir.rows) != 0 {
		t.Fatalf("directory row should be rolled back, got %v", dir.rows)
	}
	if len(resources.databasesDropped) != 1 {
		t.Fatalf("expected drop database during compensation, got %v", resources.databasesDropped)
	}
}

func TestCreateSkipsPasswordForExistingAdmin(t *testing.T) {
	seeder := &stubSeeder{result: &users.SeedAdminResult{Generated: false}}
	svc := newTestService(t, newStubDirectory(), newStubAliases(), newStubResources(), seeder)

	result, err := svc.Create(context.Background(), CreateTenantInput{
		Name:       "Acme",
		Email:      "owner@acme.com",
		Domain:     "acme",
		AdminEmail: "admin@acme.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.AdminPassword != "" || result.AdminEmail != "" {
		t.Fatalf("credentials must not be echoed for pre-existing admins, got %+v", result)
	}
	if seeder.lastInput.Email != "admin@acme.com" {
		t.Fatalf("explicit admin email ignored, got %q", seeder.lastInput.Email)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, newStubDirectory(), newStubAliases(), newStubResources(), &stubSeeder{})

	cases := []struct {
		name  string
		input CreateTenantInput
	}{
		{"missing name", CreateTenantInput{Email: "owner@acme.com"}},
		{"missing email", CreateTenantInput{Name: "Acme"}},
		{"bad plan", CreateTenantInput{Name: "Acme", Email: "owner@acme.com", Plan: enums.TenantPlan("gold")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDeleteTearsDownResources(t *testing.T) {
	dir := newStubDirectory("tenant_acme")
	resources := newStubResources()
	svc := newTestService(t, dir, newStubAliases(), resources, &stubSeeder{})

	if err := svc.Delete(context.Background(), "tenant_acme"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(dir.rows) != 0 {
		t.Fatalf("tenant row should be gone, got %v", dir.rows)
	}
	for name, calls := range map[string][]string{
		"drop database":  resources.databasesDropped,
		"remove storage": resources.storageRemoved,
		"flush cache":    resources.cachesFlushed,
	} {
		if len(calls) != 1 || calls[0] != "tenant_acme" {
			t.Fatalf("expected %s for tenant_acme, got %v", name, calls)
		}
	}
}

func TestDeleteUnknownTenant(t *testing.T) {
	svc := newTestService(t, newStubDirectory(), newStubAliases(), newStubResources(), &stubSeeder{})

	err := svc.Delete(context.Background(), "tenant_ghost")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	dir := newStubDirectory("tenant_acme")
	svc := newTestService(t, dir, newStubAliases(), newStubResources(), &stubSeeder{})

	name := "Acme Rebranded"
	status := enums.TenantStatusInactive
	updated, err := svc.Update(context.Background(), "tenant_acme", UpdateTenantInput{
		Name:   &name,
		Status: &status,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.Status != enums.TenantStatusInactive {
		t.Fatalf("unexpected update result %+v", updated)
	}

	bad := enums.TenantStatus("paused")
	_, err = svc.Update(context.Background(), "tenant_acme", UpdateTenantInput{Status: &bad})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}

func TestNormalizeProvisionDomain(t *testing.T) {
	cases := []struct {
		name   string
		cfg    config.TenancyConfig
		isDev  bool
		domain string
		want   string
	}{
		{
			name:   "bare name gets configured suffix",
			cfg:    testTenancyConfig(),
			domain: "acme",
			want:   "acme.shopstack.dev",
		},
		{
			name:   "dotted name untouched",
			cfg:    testTenancyConfig(),
			domain: "shop.acme.com",
			want:   "shop.acme.com",
		},
		{
			name:   "dev fallback uses first central domain",
			cfg:    config.TenancyConfig{CentralDomains: []string{"127.0.0.1", "localhost"}},
			isDev:  true,
			domain: "acme",
			want:   "acme.localhost",
		},
		{
			name:   "prod without suffix leaves bare name",
			cfg:    config.TenancyConfig{CentralDomains: []string{"shopstack.com"}},
			domain: "acme",
			want:   "acme",
		},
		{
			name:   "empty stays empty",
			cfg:    testTenancyConfig(),
			domain: "  ",
			want:   "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &service{cfg: tc.cfg, isDev: tc.isDev}
			if got := s.normalizeProvisionDomain(tc.domain); got != tc.want {
				t.Fatalf("normalizeProvisionDomain(%q) = %q, want %q", tc.domain, got, tc.want)
			}
		})
	}
}
