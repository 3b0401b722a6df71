package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// Login: POST /api/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email and password are required"}
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: wrong password", zap.Int64("user_id", u.ID))
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	s.logger.Info("user logged in", zap.Int64("user_id", u.ID))

	resp, err := s.authResponse(u)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return resp, nil
}
