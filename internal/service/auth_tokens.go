package service

import (
	"strconv"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ============================================================
// Internal JWT helpers
// ============================================================

func (s *AuthService) signAccessToken(userID int64) (string, error) {
	now := s.now()
	claims := JWTClaims{
		Sub:  strconv.FormatInt(userID, 10),
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) authResponse(u *domain.User) (*domain.AuthResponse, error) {
	token, err := s.signAccessToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{
		User:      u,
		Token:     token,
		ExpiresIn: int(s.accessTTL.Seconds()),
	}, nil
}
