// Package service holds the use cases behind the HTTP API. AuthService handles registration, login and JWT access
// tokens. Logout revokes a token id until the token would have expired.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost        = 12
	minPasswordLength = 6
	tokenIssuer       = "finance-tracker"
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	users        port.UserStore
	revoked      port.ExpiringCache[bool]
	jwtSecret    []byte
	accessTTL    time.Duration
	passwordCost int
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users port.UserStore,
	revoked port.ExpiringCache[bool],
	jwtSecret string,
	accessTTL time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		revoked:      revoked,
		jwtSecret:    []byte(jwtSecret),
		accessTTL:    accessTTL,
		passwordCost: bcryptCost,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// WithPasswordCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *AuthService) WithPasswordCost(cost int) *AuthService {
	s.passwordCost = cost
	return s
}

// ============================================================
// Me: GET /api/auth/me
// ============================================================

func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.MeResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Me")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, &domain.ErrUnauthorized{Message: "user not found"}
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &domain.MeResponse{User: u}, nil
}

// ============================================================
// Logout: POST /api/auth/logout
// ============================================================

// Logout revokes the token described by claims.
func (s *AuthService) Logout(ctx context.Context, claims *JWTClaims) error {
	_, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if claims == nil || claims.ID == "" {
		return &domain.ErrUnauthorized{Message: "invalid token"}
	}

	ttl := s.accessTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if ttl > 0 {
		s.revoked.SetWithTTL(claims.ID, true, ttl)
	}

	s.logger.Info("user logged out", zap.String("user_id", claims.Sub))
	return nil
}

// ============================================================
// ValidateToken: used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject as a user id.
func (c *JWTClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ErrUnauthorized{Message: "invalid token subject"}
	}
	return id, nil
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}

	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}

	if _, revoked := s.revoked.Get(claims.ID); revoked {
		s.metrics.IncrCacheHit(observability.CacheRevokedTokens)
		return nil, &domain.ErrUnauthorized{Message: "token revoked"}
	}
	s.metrics.IncrCacheMiss(observability.CacheRevokedTokens)

	return claims, nil
}
