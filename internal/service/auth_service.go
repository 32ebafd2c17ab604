package service

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nexusops/sla-service/internal/auth"
	"github.com/nexusops/sla-service/internal/config"
	"github.com/nexusops/sla-service/internal/domain"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

// AuthService issues JWTs for service accounts. Each role is backed by a
// bcrypt-hashed API key from configuration; an unset hash disables the role.
type AuthService struct {
	cfg    config.AuthConfig
	tokens *auth.TokenManager
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		cfg:    cfg,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login validates the API key for the requested role and returns a signed
// token scoped to the organization.
func (s *AuthService) Login(organizationID string, role domain.Role, apiKey string) (string, time.Time, error) {
	if organizationID == "" || apiKey == "" {
		return "", time.Time{}, apperrors.NewValidationError("organization_id and api_key required", nil)
	}

	var hash string
	switch role {
	case domain.RoleAdmin:
		hash = s.cfg.AdminKeyHash
	case domain.RoleReader:
		hash = s.cfg.ReaderKeyHash
	default:
		return "", time.Time{}, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	if hash == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("role not provisioned")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey)); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	return s.tokens.GenerateToken(organizationID, role)
}
