package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/internal/users"
	pkgAuth "github.com/angelmondragon/shopstack-backend/pkg/auth"
	"github.com/angelmondragon/shopstack-backend/pkg/auth/session"
	"github.com/angelmondragon/shopstack-backend/pkg/config"
	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
)

const testTenantID = "tenant_acme"

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
}

func (r *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if _, exists := r.byEmail[dto.Email]; exists {
		return nil, errors.New(`duplicate key value violates unique constraint "uq_users_email"`)
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := r.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if user, ok := r.byID[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

type stubSessions struct {
	tokens map[string]string
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: make(map[string]string)}
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newAccessID := uuid.NewString()
	token := "refresh-" + newAccessID
	s.tokens[newAccessID] = token
	return newAccessID, token, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "shopstack",
		ExpirationMinutes: 15,
	}
}

func newAuthService(t *testing.T, repo *stubUserRepo, sessions *stubSessions) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{MinPasswordLength: 8},
		TenantID:       testTenantID,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterIssuesTenantBoundTokens(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), newStubSessions())

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "Shopper@Acme.COM",
		Password:  "hunter2hunter2",
		FirstName: "Sam",
		LastName:  "Shopper",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "shopper@acme.com" {
		t.Fatalf("email must be lowercased, got %q", resp.User.Email)
	}
	if resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("self-registration must produce customers, got %s", resp.User.Role)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.TenantID != testTenantID {
		t.Fatalf("token not bound to tenant, got %q", claims.TenantID)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("token user mismatch: %s vs %s", claims.UserID, resp.User.ID)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), newStubSessions())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "shopper@acme.com",
		Password: "short",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), newStubSessions())

	req := RegisterRequest{
		Email:     "shopper@acme.com",
		Password:  "hunter2hunter2",
		FirstName: "Sam",
		LastName:  "Shopper",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, newStubSessions())

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "shopper@acme.com",
		Password:  "hunter2hunter2",
		FirstName: "Sam",
		LastName:  "Shopper",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "SHOPPER@acme.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.LastLoginAt == nil {
		t.Fatal("expected last login to be stamped")
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@acme.com",
		Password: "wrong-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}

	// unknown accounts fail with the same message as bad passwords
	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@acme.com",
		Password: "hunter2hunter2",
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized || typed.Message() != invalidCredentialsMessage {
		t.Fatalf("expected indistinguishable unauthorized error, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, newStubSessions())

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "shopper@acme.com",
		Password:  "hunter2hunter2",
		FirstName: "Sam",
		LastName:  "Shopper",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	repo.byID[resp.User.ID].IsActive = false

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@acme.com",
		Password: "hunter2hunter2",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for disabled account, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	sessions := newStubSessions()
	svc := newAuthService(t, newStubUserRepo(), sessions)

	registered, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "shopper@acme.com",
		Password:  "hunter2hunter2",
		FirstName: "Sam",
		LastName:  "Shopper",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), registered.AccessToken, RefreshRequest{
		RefreshToken: registered.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == registered.AccessToken {
		t.Fatal("expected a fresh access token")
	}
	if refreshed.RefreshToken == registered.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	// the old pair is burned
	_, err = svc.Refresh(context.Background(), registered.AccessToken, RefreshRequest{
		RefreshToken: registered.RefreshToken,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for replayed refresh, got %v", err)
	}
}

func TestRefreshRejectsForeignTenantToken(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), newStubSessions())

	foreign, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		TenantID: "tenant_other",
		Role:     enums.UserRoleCustomer,
		JTI:      "jti-1",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	_, err = svc.Refresh(context.Background(), foreign, RefreshRequest{RefreshToken: "anything"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for foreign tenant token, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := newStubSessions()
	svc := newAuthService(t, newStubUserRepo(), sessions)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "shopper@acme.com",
		Password:  "hunter2hunter2",
		FirstName: "Sam",
		LastName:  "Shopper",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.tokens[claims.ID]; ok {
		t.Fatal("expected session revoked")
	}
}

func TestMe(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, newStubSessions())

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "shopper@acme.com",
		Password:  "hunter2hunter2",
		FirstName: "Sam",
		LastName:  "Shopper",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	me, err := svc.Me(context.Background(), resp.User.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Email != "shopper@acme.com" {
		t.Fatalf("unexpected user %+v", me)
	}

	_, err = svc.Me(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
