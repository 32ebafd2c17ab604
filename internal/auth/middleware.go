package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nexusops/sla-service/internal/domain"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller. Principals are claims-only service
// accounts; there is no per-request user lookup.
type Principal struct {
	OrganizationID string
	Role           domain.Role
}

// AuthMiddleware validates bearer tokens and attaches principals.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if claims.OrganizationID == "" {
		return apperrors.NewUnauthorized("token missing organization scope")
	}

	c.Locals(principalKey, &Principal{
		OrganizationID: claims.OrganizationID,
		Role:           claims.Role,
	})
	return c.Next()
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return token, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok
}
