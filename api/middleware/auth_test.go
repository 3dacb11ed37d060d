package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/shopstack-backend/pkg/auth"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
)

type stubSessionChecker struct {
	live map[string]bool
	err  error
}

func (s *stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.live[accessID], nil
}

func authTestJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "shopstack",
		ExpirationMinutes: 15,
	}
}

func mintTestToken(t *testing.T, tenantID, jti string) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(authTestJWTConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   userID,
		TenantID: tenantID,
		Role:     enums.UserRoleCustomer,
		JTI:      jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, userID
}

func TestAuthSeedsContext(t *testing.T) {
	token, userID := mintTestToken(t, "tenant_acme", "jti-1")
	checker := &stubSessionChecker{live: map[string]bool{"jti-1": true}}

	var gotUser, gotRole, gotAccess string
	handler := Auth(authTestJWTConfig(), checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotAccess = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(WithTenant(req.Context(), &tenancy.Context{TenantID: "tenant_acme"}))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUser != userID.String() {
		t.Fatalf("user id not seeded, got %q", gotUser)
	}
	if gotRole != string(enums.UserRoleCustomer) {
		t.Fatalf("role not seeded, got %q", gotRole)
	}
	if gotAccess != "jti-1" {
		t.Fatalf("access id not seeded, got %q", gotAccess)
	}
}

func TestAuthMissingCredentials(t *testing.T) {
	handler := Auth(authTestJWTConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer ", "Bearer not.a.jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthRejectsForeignTenantToken(t *testing.T) {
	token, _ := mintTestToken(t, "tenant_other", "jti-1")

	handler := Auth(authTestJWTConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(WithTenant(req.Context(), &tenancy.Context{TenantID: "tenant_acme"}))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign tenant token, got %d", rec.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token, _ := mintTestToken(t, "tenant_acme", "jti-1")
	checker := &stubSessionChecker{live: map[string]bool{}}

	handler := Auth(authTestJWTConfig(), checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(WithTenant(req.Context(), &tenancy.Context{TenantID: "tenant_acme"}))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", rec.Code)
	}
}

func TestAuthSkipsSessionCheckWithoutVerifier(t *testing.T) {
	token, _ := mintTestToken(t, "tenant_acme", "jti-1")

	handler := Auth(authTestJWTConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
