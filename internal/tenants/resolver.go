package tenants

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
)

// Identifier headers in priority order. The Host line is consulted last and
// only when it is not a central domain.
var identifierHeaders = []string{
	"X-Tenant-Domain",
	"X-Tenant",
	"X-Tenant-Id",
	"X-Tenant-Slug",
}

var slugSanitizeRe = regexp.MustCompile(`[^a-z0-9]+`)

type tenantDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
	FindFirstIDWithPrefix(ctx context.Context, prefix string) (*models.Tenant, error)
}

type domainDirectory interface {
	FindByDomain(ctx context.Context, domain string) (*models.Domain, error)
	FindFirstWithPrefix(ctx context.Context, prefix string) (*models.Domain, error)
}

// Resolver maps inbound request identity onto a tenant directory entry.
type Resolver struct {
	tenants tenantDirectory
	domains domainDirectory
	cfg     config.TenancyConfig
}

// NewResolver wires the resolver against the directory repositories.
func NewResolver(tenants tenantDirectory, domains domainDirectory, cfg config.TenancyConfig) (*Resolver, error) {
	if tenants == nil {
		return nil, fmt.Errorf("tenant directory required")
	}
	if domains == nil {
		return nil, fmt.Errorf("domain directory required")
	}
	return &Resolver{tenants: tenants, domains: domains, cfg: cfg}, nil
}

// ExtractIdentifier walks the identifier headers in priority order, falling
// back to the host when it is not a central domain. Empty string means no
// identifier was supplied and the request stays in the central context.
func (r *Resolver) ExtractIdentifier(getHeader func(string) string, host string) string {
	for _, header := range identifierHeaders {
		if value := strings.TrimSpace(getHeader(header)); value != "" {
			return value
		}
	}

	host = strings.TrimSpace(host)
	if host != "" && !r.cfg.IsCentralDomain(NormalizeIdentifier(host)) {
		return host
	}
	return ""
}

// Resolve turns a raw identifier into a tenant. It returns (nil, nil) when
// the identifier normalizes to nothing, and a typed not-found error when a
// real identifier matches no tenant.
func (r *Resolver) Resolve(ctx context.Context, rawIdentifier string) (*models.Tenant, error) {
	identifier := NormalizeIdentifier(rawIdentifier)
	if identifier == "" {
		return nil, nil
	}

	tenant, err := r.resolveByDomain(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		tenant, err = r.resolveByTenantIDs(ctx, identifier)
		if err != nil {
			return nil, err
		}
	}

	if tenant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found for provided identifier")
	}
	return tenant, nil
}

func (r *Resolver) resolveByDomain(ctx context.Context, identifier string) (*models.Tenant, error) {
	for _, candidate := range r.domainCandidates(identifier) {
		row, err := r.domains.FindByDomain(ctx, candidate)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup domain")
		}
		return r.loadTenant(ctx, row.TenantID)
	}

	// bare identifiers also match any registered hostname they prefix
	if !strings.Contains(identifier, ".") {
		row, err := r.domains.FindFirstWithPrefix(ctx, identifier)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup domain prefix")
		}
		return r.loadTenant(ctx, row.TenantID)
	}

	return nil, nil
}

func (r *Resolver) domainCandidates(identifier string) []string {
	candidates := []string{identifier}

	if !strings.Contains(identifier, ".") {
		for _, suffix := range r.suffixCandidates() {
			if suffix != "" {
				candidates = append(candidates, identifier+"."+suffix)
			}
		}
	}

	return dedupe(candidates)
}

func (r *Resolver) suffixCandidates() []string {
	suffixes := []string{}
	if configured := strings.TrimSpace(r.cfg.DomainSuffix); configured != "" {
		suffixes = append(suffixes, configured)
	}
	for _, domain := range r.cfg.CentralDomains {
		if trimmed := strings.TrimSpace(domain); trimmed != "" {
			suffixes = append(suffixes, trimmed)
		}
	}
	suffixes = append(suffixes, "localhost")
	return dedupe(suffixes)
}

func (r *Resolver) resolveByTenantIDs(ctx context.Context, identifier string) (*models.Tenant, error) {
	if tenant, err := r.findTenant(ctx, identifier); err != nil || tenant != nil {
		return tenant, err
	}

	slug := SlugifyID(identifier)
	if slug == "" {
		return nil, nil
	}

	for _, candidate := range dedupe([]string{slug, "tenant_" + slug}) {
		if candidate == identifier {
			continue
		}
		if tenant, err := r.findTenant(ctx, candidate); err != nil || tenant != nil {
			return tenant, err
		}
	}

	tenant, err := r.tenants.FindFirstIDWithPrefix(ctx, "tenant_"+slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant prefix")
	}
	return tenant, nil
}

func (r *Resolver) findTenant(ctx context.Context, id string) (*models.Tenant, error) {
	tenant, err := r.tenants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant")
	}
	return tenant, nil
}

func (r *Resolver) loadTenant(ctx context.Context, id string) (*models.Tenant, error) {
	tenant, err := r.findTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		// alias pointing at a missing tenant behaves like no match
		return nil, nil
	}
	return tenant, nil
}

// SlugifyID lowercases the value and collapses non-alphanumeric runs to
// underscores, the separator tenant ids use.
func SlugifyID(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = slugSanitizeRe.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
