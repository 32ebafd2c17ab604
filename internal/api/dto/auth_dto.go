package dto

import (
	"time"

	"github.com/nexusops/sla-service/internal/domain"
)

// LoginRequest payload for service-account login.
type LoginRequest struct {
	OrganizationID string      `json:"organization_id"`
	Role           domain.Role `json:"role"`
	APIKey         string      `json:"api_key"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
