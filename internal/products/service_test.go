package products

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
)

type stubProductRepo struct {
	byID      map[uuid.UUID]*models.Product
	bySlug    map[string]*models.Product
	featured  []models.Product
	searched  string
	lastLimit int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		byID:   make(map[uuid.UUID]*models.Product),
		bySlug: make(map[string]*models.Product),
	}
}

func (s *stubProductRepo) add(p *models.Product) *models.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.byID[p.ID] = p
	s.bySlug[p.Slug] = p
	return p
}

func (s *stubProductRepo) ListActive(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.byID {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	s.lastLimit = limit
	return s.featured, nil
}

func (s *stubProductRepo) Search(ctx context.Context, query string) ([]models.Product, error) {
	s.searched = query
	var out []models.Product
	for _, p := range s.byID {
		if p.IsActive && strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if p, ok := s.bySlug[slug]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, ok := s.bySlug[slug]
	return ok, nil
}

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	return s.add(product), nil
}

func (s *stubProductRepo) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	s.byID[product.ID] = product
	s.bySlug[product.Slug] = product
	return product, nil
}

func (s *stubProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if p, ok := s.byID[id]; ok {
		delete(s.bySlug, p.Slug)
		delete(s.byID, id)
	}
	return nil
}

func newProductService(t *testing.T, repo *stubProductRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Classic Tee", "classic-tee"},
		{"  Fancy -- Product!  ", "fancy-product"},
		{"100% Cotton", "100-cotton"},
		{"***", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateGeneratesUniqueSlug(t *testing.T) {
	repo := newStubProductRepo()
	repo.add(&models.Product{Name: "Classic Tee", Slug: "classic-tee", IsActive: true})
	repo.add(&models.Product{Name: "Classic Tee", Slug: "classic-tee-2", IsActive: true})
	svc := newProductService(t, repo)

	created, err := svc.Create(context.Background(), CreateProductInput{
		Name:  "Classic Tee",
		Price: decimal.NewFromFloat(19.99),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Slug != "classic-tee-3" {
		t.Fatalf("expected slug classic-tee-3, got %q", created.Slug)
	}
	if !created.TrackInventory || !created.IsActive {
		t.Fatalf("expected inventory tracking and active by default, got %+v", created)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newProductService(t, newStubProductRepo())

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{Price: decimal.NewFromInt(5)}},
		{"negative price", CreateProductInput{Name: "Tee", Price: decimal.NewFromInt(-1)}},
		{"negative quantity", CreateProductInput{Name: "Tee", Price: decimal.NewFromInt(5), AvailableQty: -1}},
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

func TestGetByIDOrSlug(t *testing.T) {
	repo := newStubProductRepo()
	tee := repo.add(&models.Product{Name: "Classic Tee", Slug: "classic-tee", IsActive: true})
	svc := newProductService(t, repo)

	byID, err := svc.GetByIDOrSlug(context.Background(), tee.ID.String())
	if err != nil {
		t.Fatalf("lookup by id: %v", err)
	}
	if byID.ID != tee.ID {
		t.Fatalf("expected %s, got %s", tee.ID, byID.ID)
	}

	bySlug, err := svc.GetByIDOrSlug(context.Background(), "classic-tee")
	if err != nil {
		t.Fatalf("lookup by slug: %v", err)
	}
	if bySlug.ID != tee.ID {
		t.Fatalf("expected %s, got %s", tee.ID, bySlug.ID)
	}

	_, err = svc.GetByIDOrSlug(context.Background(), "missing-slug")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFeaturedLimitClamping(t *testing.T) {
	repo := newStubProductRepo()
	svc := newProductService(t, repo)

	if _, err := svc.Featured(context.Background(), 0); err != nil {
		t.Fatalf("featured: %v", err)
	}
	if repo.lastLimit != defaultFeaturedLimit {
		t.Fatalf("expected default limit %d, got %d", defaultFeaturedLimit, repo.lastLimit)
	}

	if _, err := svc.Featured(context.Background(), 500); err != nil {
		t.Fatalf("featured: %v", err)
	}
	if repo.lastLimit != maxFeaturedLimit {
		t.Fatalf("expected max limit %d, got %d", maxFeaturedLimit, repo.lastLimit)
	}
}

func TestSearchBlankFallsBackToListing(t *testing.T) {
	repo := newStubProductRepo()
	repo.add(&models.Product{Name: "Classic Tee", Slug: "classic-tee", IsActive: true})
	repo.add(&models.Product{Name: "Hidden", Slug: "hidden", IsActive: false})
	svc := newProductService(t, repo)

	items, err := svc.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected only active items, got %d", len(items))
	}
	if repo.searched != "" {
		t.Fatalf("blank query must not hit search, got %q", repo.searched)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	repo := newStubProductRepo()
	tee := repo.add(&models.Product{
		Name:         "Classic Tee",
		Slug:         "classic-tee",
		Price:        decimal.NewFromFloat(19.99),
		AvailableQty: 10,
		IsActive:     true,
	})
	svc := newProductService(t, repo)

	newPrice := decimal.NewFromFloat(24.99)
	qty := 3
	updated, err := svc.Update(context.Background(), tee.ID, UpdateProductInput{
		Price:        &newPrice,
		AvailableQty: &qty,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Price.Equal(newPrice) || updated.AvailableQty != 3 {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if updated.Name != "Classic Tee" {
		t.Fatalf("untouched fields must survive, got %q", updated.Name)
	}

	negative := decimal.NewFromInt(-5)
	_, err = svc.Update(context.Background(), tee.ID, UpdateProductInput{Price: &negative})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteMissingProduct(t *testing.T) {
	svc := newProductService(t, newStubProductRepo())

	err := svc.Delete(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
