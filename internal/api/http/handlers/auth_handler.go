package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nexusops/sla-service/internal/api/dto"
	"github.com/nexusops/sla-service/internal/service"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

// AuthHandler exposes service-account auth endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	token, expiresAt, err := h.authService.Login(req.OrganizationID, req.Role, req.APIKey)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: token, ExpiresAt: expiresAt}})
}
