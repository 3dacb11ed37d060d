package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/shopstack-backend/pkg/config"
)

func TestAdminTokenValid(t *testing.T) {
	handler := AdminToken(config.AdminConfig{APIToken: "sekret"}, true, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/tenants", nil)
	req.Header.Set("X-Admin-Token", "sekret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminTokenRejected(t *testing.T) {
	handler := AdminToken(config.AdminConfig{APIToken: "sekret"}, true, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, token := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/tenants", nil)
		if token != "" {
			req.Header.Set("X-Admin-Token", token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", token, rec.Code)
		}
	}
}

func TestAdminTokenUnsetOutsideProduction(t *testing.T) {
	handler := AdminToken(config.AdminConfig{}, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/v1/tenants", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open surface in dev, got %d", rec.Code)
	}
}

func TestAdminTokenUnsetInProduction(t *testing.T) {
	handler := AdminToken(config.AdminConfig{}, true, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/v1/tenants", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected surface disabled in prod, got %d", rec.Code)
	}
}
