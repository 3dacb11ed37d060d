package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
)

const (
	defaultFeaturedLimit = 8
	maxFeaturedLimit     = 50
	maxSlugAttempts      = 100
)

var slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)

type productRepository interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes storefront and admin product operations.
type Service interface {
	ListActive(ctx context.Context) ([]ProductDTO, error)
	Featured(ctx context.Context, limit int) ([]ProductDTO, error)
	Search(ctx context.Context, query string) ([]ProductDTO, error)
	GetByIDOrSlug(ctx context.Context, idOrSlug string) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo productRepository
}

// NewService builds a product service backed by the provided repository.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]ProductDTO, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return FromModels(items), nil
}

func (s *service) Featured(ctx context.Context, limit int) ([]ProductDTO, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	if limit > maxFeaturedLimit {
		limit = maxFeaturedLimit
	}
	items, err := s.repo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return FromModels(items), nil
}

func (s *service) Search(ctx context.Context, query string) ([]ProductDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListActive(ctx)
	}
	items, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return FromModels(items), nil
}

// GetByIDOrSlug tries the value as a uuid first, then falls back to slug lookup.
func (s *service) GetByIDOrSlug(ctx context.Context, idOrSlug string) (*ProductDTO, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product identifier is required")
	}

	var (
		item *models.Product
		err  error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		item, err = s.repo.FindByID(ctx, id)
	} else {
		item, err = s.repo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(item), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.AvailableQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available quantity cannot be negative")
	}

	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	trackInventory := true
	if input.TrackInventory != nil {
		trackInventory = *input.TrackInventory
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := &models.Product{
		Name:           name,
		Slug:           slug,
		Description:    input.Description,
		Price:          input.Price,
		CompareAtPrice: input.CompareAtPrice,
		SKU:            input.SKU,
		Barcode:        input.Barcode,
		AvailableQty:   input.AvailableQty,
		TrackInventory: trackInventory,
		ContinueSell:   input.ContinueSell,
		Images:         input.Images,
		IsActive:       isActive,
		IsFeatured:     input.IsFeatured,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.CompareAtPrice != nil {
		product.CompareAtPrice = input.CompareAtPrice
	}
	if input.SKU != nil {
		product.SKU = input.SKU
	}
	if input.Barcode != nil {
		product.Barcode = input.Barcode
	}
	if input.AvailableQty != nil {
		if *input.AvailableQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "available quantity cannot be negative")
		}
		product.AvailableQty = *input.AvailableQty
	}
	if input.TrackInventory != nil {
		product.TrackInventory = *input.TrackInventory
	}
	if input.ContinueSell != nil {
		product.ContinueSell = *input.ContinueSell
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// uniqueSlug slugifies the name and appends -2, -3, ... until no listing
// claims the candidate.
func (s *service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "product"
	}

	candidate := base
	for attempt := 2; attempt <= maxSlugAttempts; attempt++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not generate a unique product slug")
}

// Slugify lowercases the value and collapses non-alphanumeric runs to hyphens.
func Slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = slugInvalidRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
