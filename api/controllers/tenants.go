package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopstack-backend/api/responses"
	"github.com/angelmondragon/shopstack-backend/api/validators"
	tenantsvc "github.com/angelmondragon/shopstack-backend/internal/tenants"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	"github.com/angelmondragon/shopstack-backend/pkg/logger"
	"github.com/angelmondragon/shopstack-backend/pkg/types"
)

type createTenantRequest struct {
	ID            string             `json:"id,omitempty"`
	Name          string             `json:"name" validate:"required"`
	Email         string             `json:"email" validate:"required,email"`
	Phone         *string            `json:"phone,omitempty"`
	Address       *string            `json:"address,omitempty"`
	LogoURL       *string            `json:"logo_url,omitempty"`
	Domain        string             `json:"domain,omitempty"`
	Plan          string             `json:"plan,omitempty"`
	Data          types.AttributeBag `json:"data,omitempty"`
	AdminEmail    string             `json:"admin_email,omitempty" validate:"omitempty,email"`
	AdminPassword string             `json:"admin_password,omitempty"`
	SeedData      bool               `json:"seed_data"`
}

type updateTenantRequest struct {
	Name    *string            `json:"name,omitempty"`
	Email   *string            `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string            `json:"phone,omitempty"`
	Address *string            `json:"address,omitempty"`
	LogoURL *string            `json:"logo_url,omitempty"`
	Status  *string            `json:"status,omitempty"`
	Plan    *string            `json:"plan,omitempty"`
	Data    types.AttributeBag `json:"data,omitempty"`
}

// TenantCreate provisions a tenant end to end and returns the one-time admin
// credentials when a fresh account was created.
func TenantCreate(svc tenantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createTenantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), tenantsvc.CreateTenantInput{
			ID:            payload.ID,
			Name:          payload.Name,
			Email:         payload.Email,
			Phone:         payload.Phone,
			Address:       payload.Address,
			LogoURL:       payload.LogoURL,
			Domain:        payload.Domain,
			Plan:          enums.TenantPlan(payload.Plan),
			Data:          payload.Data,
			AdminEmail:    payload.AdminEmail,
			AdminPassword: payload.AdminPassword,
			SeedData:      payload.SeedData,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func TenantList(svc tenantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func TenantGet(svc tenantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.Get(r.Context(), chi.URLParam(r, "tenantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// TenantGetByDomain answers "which tenant owns this domain alias".
func TenantGetByDomain(svc tenantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.GetByDomain(r.Context(), chi.URLParam(r, "domain"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func TenantUpdate(svc tenantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateTenantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := tenantsvc.UpdateTenantInput{
			Name:    payload.Name,
			Email:   payload.Email,
			Phone:   payload.Phone,
			Address: payload.Address,
			LogoURL: payload.LogoURL,
			Data:    payload.Data,
		}
		if payload.Status != nil {
			status := enums.TenantStatus(*payload.Status)
			input.Status = &status
		}
		if payload.Plan != nil {
			plan := enums.TenantPlan(*payload.Plan)
			input.Plan = &plan
		}

		item, err := svc.Update(r.Context(), chi.URLParam(r, "tenantId"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// TenantDelete deprovisions a tenant, dropping its database and storage.
func TenantDelete(svc tenantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "tenantId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
