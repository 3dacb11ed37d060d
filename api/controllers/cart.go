package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopstack-backend/api/middleware"
	"github.com/angelmondragon/shopstack-backend/api/responses"
	"github.com/angelmondragon/shopstack-backend/api/validators"
	cartsvc "github.com/angelmondragon/shopstack-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
)

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// cartOwnerFromRequest prefers the authenticated user and falls back to the
// guest session.
func cartOwnerFromRequest(r *http.Request) (cartsvc.Owner, error) {
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return cartsvc.Owner{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
		}
		return cartsvc.UserOwner(userID), nil
	}
	if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
		return cartsvc.SessionOwner(sessionID), nil
	}
	return cartsvc.Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner could not be determined")
}

func CartFetch(factory CartServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, owner, ok := cartScope(factory, logg, w, r)
		if !ok {
			return
		}

		record, err := svc.GetCart(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

func CartAddItem(factory CartServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, owner, ok := cartScope(factory, logg, w, r)
		if !ok {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), owner, payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// CartUpdateItem changes a line's quantity; zero removes the line.
func CartUpdateItem(factory CartServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, owner, ok := cartScope(factory, logg, w, r)
		if !ok {
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateItem(r.Context(), owner, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

func CartRemoveItem(factory CartServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, owner, ok := cartScope(factory, logg, w, r)
		if !ok {
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		record, err := svc.RemoveItem(r.Context(), owner, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

func CartClear(factory CartServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, owner, ok := cartScope(factory, logg, w, r)
		if !ok {
			return
		}

		record, err := svc.Clear(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// CartMerge folds the guest session cart into the authenticated user's cart.
// Requires both an authenticated user and a guest session.
func CartMerge(factory CartServiceFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenantFromRequest(r, logg, w)
		if !ok {
			return
		}
		svc, err := factory(tenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no guest session to merge"))
			return
		}

		record, err := svc.Merge(r.Context(), userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

func cartScope(factory CartServiceFactory, logg *logger.Logger, w http.ResponseWriter, r *http.Request) (cartsvc.Service, cartsvc.Owner, bool) {
	tenant, ok := tenantFromRequest(r, logg, w)
	if !ok {
		return nil, cartsvc.Owner{}, false
	}
	svc, err := factory(tenant)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart service unavailable"))
		return nil, cartsvc.Owner{}, false
	}
	owner, err := cartOwnerFromRequest(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, cartsvc.Owner{}, false
	}
	return svc, owner, true
}
