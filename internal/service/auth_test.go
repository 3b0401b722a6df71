package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/cache"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-at-least-16-chars"

func newAuth(t *testing.T, store port.UserStore, ttl time.Duration) (*service.AuthService, *observability.Metrics) {
	t.Helper()
	revoked := cache.New[bool](time.Hour)
	t.Cleanup(revoked.Close)
	metrics := observability.NewMetrics()
	svc := service.NewAuthService(store, revoked, testSecret, ttl, metrics, zap.NewNop()).
		WithPasswordCost(bcrypt.MinCost)
	return svc, metrics
}

func registerReq(email string) *domain.RegisterRequest {
	return &domain.RegisterRequest{
		Username:        "ada",
		Email:           email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegister_Success(t *testing.T) {
	svc, _ := newAuth(t, newStore(), time.Hour)

	resp, err := svc.Register(context.Background(), registerReq("  Ada@Example.com "))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.User.Email != "ada@example.com" {
		t.Errorf("expected normalized email, got %q", resp.User.Email)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expected expiresIn 3600, got %d", resp.ExpiresIn)
	}

	claims, err := svc.ValidateAccessToken(resp.Token)
	if err != nil {
		t.Fatalf("token should validate: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != resp.User.ID {
		t.Errorf("expected subject %d, got %d (%v)", resp.User.ID, id, err)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuth(t, newStore(), time.Hour)

	tests := []struct {
		name  string
		edit  func(r *domain.RegisterRequest)
		field string
	}{
		{"missing username", func(r *domain.RegisterRequest) { r.Username = " " }, "username"},
		{"bad email", func(r *domain.RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"short password", func(r *domain.RegisterRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "password"},
		{"mismatch", func(r *domain.RegisterRequest) { r.ConfirmPassword = "other12" }, "confirmPassword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerReq("v@example.com")
			tt.edit(req)
			_, err := svc.Register(context.Background(), req)
			v := assertErrAs[*domain.ErrValidation](t, err)
			if v.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, v.Field)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuth(t, newStore(), time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerReq("dup@example.com")); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, registerReq("DUP@example.com"))
	assertErrAs[*domain.ErrConflict](t, err)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuth(t, newStore(), time.Hour)
	ctx := context.Background()
	if _, err := svc.Register(ctx, registerReq("login@example.com")); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.Login(ctx, &domain.LoginRequest{Email: "login@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if resp.Token == "" || resp.User.PasswordHash == "" {
		t.Error("expected token and stored user")
	}

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "login@example.com", Password: "wrong!!"})
	assertErrAs[*domain.ErrUnauthorized](t, err)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assertErrAs[*domain.ErrUnauthorized](t, err)

	_, err = svc.Login(ctx, &domain.LoginRequest{})
	assertErrAs[*domain.ErrValidation](t, err)
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, metrics := newAuth(t, newStore(), time.Hour)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerReq("out@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ValidateAccessToken(resp.Token)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatal(err)
	}

	_, err = svc.ValidateAccessToken(resp.Token)
	assertErrAs[*domain.ErrUnauthorized](t, err)

	snap := metrics.Snapshot()
	if snap.TokenCacheHits != 1 || snap.TokenCacheMisses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", snap.TokenCacheHits, snap.TokenCacheMisses)
	}

	// A fresh login is unaffected.
	again, err := svc.Login(ctx, &domain.LoginRequest{Email: "out@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateAccessToken(again.Token); err != nil {
		t.Errorf("new token should validate: %v", err)
	}
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	store := newStore()
	expired, _ := newAuth(t, store, -time.Minute)
	resp, err := expired.Register(context.Background(), registerReq("exp@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = expired.ValidateAccessToken(resp.Token)
	assertErrAs[*domain.ErrUnauthorized](t, err)

	other := service.NewAuthService(store, cache.New[bool](time.Hour), "another-secret-value-xyz", time.Hour,
		observability.NewMetrics(), zap.NewNop()).WithPasswordCost(bcrypt.MinCost)
	valid, _ := newAuth(t, store, time.Hour)
	resp, err = valid.Login(context.Background(), &domain.LoginRequest{Email: "exp@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = other.ValidateAccessToken(resp.Token)
	assertErrAs[*domain.ErrUnauthorized](t, err)

	_, err = valid.ValidateAccessToken("garbage")
	assertErrAs[*domain.ErrUnauthorized](t, err)
}

func TestMe(t *testing.T) {
	store := newStore()
	svc, _ := newAuth(t, store, time.Hour)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerReq("me@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	me, err := svc.Me(ctx, resp.User.ID)
	if err != nil || me.User.Email != "me@example.com" {
		t.Fatalf("unexpected me: %+v, %v", me, err)
	}

	_, err = svc.Me(ctx, 999)
	assertErrAs[*domain.ErrUnauthorized](t, err)
}
