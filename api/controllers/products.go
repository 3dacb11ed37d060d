package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopstack-backend/api/responses"
	"github.com/angelmondragon/shopstack-backend/api/validators"
	productsvc "github.com/angelmondragon/shopstack-backend/internal/products"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
)

type createProductRequest struct {
	Name           string           `json:"name" validate:"required"`
	Description    *string          `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price" validate:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	SKU            *string          `json:"sku,omitempty"`
	Barcode        *string          `json:"barcode,omitempty"`
	AvailableQty   int              `json:"available_qty" validate:"min=0"`
	TrackInventory *bool            `json:"track_inventory,omitempty"`
	ContinueSell   bool             `json:"continue_selling"`
	Images         []string         `json:"images,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
	IsFeatured     bool             `json:"is_featured"`
}

type updateProductRequest struct {
	Name           *string          `json:"name,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	SKU            *string          `json:"sku,omitempty"`
	Barcode        *string          `json:"barcode,omitempty"`
	AvailableQty   *int             `json:"available_qty,omitempty" validate:"omitempty,min=0"`
	TrackInventory *bool            `json:"track_inventory,omitempty"`
	ContinueSell   *bool            `json:"continue_selling,omitempty"`
	Images         []string         `json:"images,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
	IsFeatured     *bool            `json:"is_featured,omitempty"`
}

// ProductList serves the storefront catalog. Supports ?q= substring search.
func ProductList(factory ProductServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenantFromRequest(r, logg, w)
		if !ok {
			return
		}
		svc, err := factory(tenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "product service unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))

		var items []productsvc.ProductDTO
		if query != "" {
			items, err = svc.Search(r.Context(), query)
		} else {
			items, err = svc.ListActive(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// ProductFeatured lists featured products, clamped by ?limit=.
func ProductFeatured(factory ProductServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenantFromRequest(r, logg, w)
		if !ok {
			return
		}
		svc, err := factory(tenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Featured(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ProductDetail resolves a product by UUID or slug.
func ProductDetail(factory ProductServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenantFromRequest(r, logg, w)
		if !ok {
			return
		}
		svc, err := factory(tenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "product service unavailable"))
			return
		}

		idOrSlug := chi.URLParam(r, "idOrSlug")
		item, err := svc.GetByIDOrSlug(r.Context(), idOrSlug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func ProductCreate(factory ProductServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenantFromRequest(r, logg, w)
		if !ok {
			return
		}
		svc, err := factory(tenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), productsvc.CreateProductInput{
			Name:           payload.Name,
			Description:    payload.Description,
			Price:          payload.Price,
			CompareAtPrice: payload.CompareAtPrice,
			SKU:            payload.SKU,
			Barcode:        payload.Barcode,
			AvailableQty:   payload.AvailableQty,
			TrackInventory: payload.TrackInventory,
			ContinueSell:   payload.ContinueSell,
			Images:         payload.Images,
			IsActive:       payload.IsActive,
			IsFeatured:     payload.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func ProductUpdate(factory ProductServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenantFromRequest(r, logg, w)
		if !ok {
			return
		}
		svc, err := factory(tenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "product service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), productID, productsvc.UpdateProductInput{
			Name:           payload.Name,
			Description:    payload.Description,
			Price:          payload.Price,
			CompareAtPrice: payload.CompareAtPrice,
			SKU:            payload.SKU,
			Barcode:        payload.Barcode,
			AvailableQty:   payload.AvailableQty,
			TrackInventory: payload.TrackInventory,
			ContinueSell:   payload.ContinueSell,
			Images:         payload.Images,
			IsActive:       payload.IsActive,
			IsFeatured:     payload.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func ProductDelete(factory ProductServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenantFromRequest(r, logg, w)
		if !ok {
			return
		}
		svc, err := factory(tenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "product service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := svc.Delete(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
