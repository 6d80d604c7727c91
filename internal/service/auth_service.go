package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AuthService is the thin identity edge: it verifies credentials and issues
// tokens. The lifecycle core treats the resulting principal as opaque and
// already verified.
type AuthService struct {
	users  repository.UserRepository
	admins repository.AdminRepository
	tokens *auth.TokenManager
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, admins repository.AdminRepository) *AuthService {
	return &AuthService{
		users:  users,
		admins: admins,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes the manager for middleware construction.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// LoginUser authenticates an end user and issues a token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, apperrors.MapError(err)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user.ID, domain.SubjectTypeUser)
}

// LoginAdmin authenticates an administrator and issues a token.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (string, time.Time, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, apperrors.MapError(err)
	}
	if !admin.Active {
		return "", time.Time{}, apperrors.NewUnauthorized("admin deactivated")
	}
	if !auth.VerifyPassword(admin.PasswordHash, password) {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(admin.ID, domain.SubjectTypeAdmin)
}

func (s *AuthService) issue(subjectID string, subject domain.SubjectType) (string, time.Time, error) {
	token, expiresAt, err := s.tokens.GenerateToken(subjectID, subject)
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}
	return token, expiresAt, nil
}
