package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nexusops/sla-service/internal/api/dto"
	"github.com/nexusops/sla-service/internal/auth"
	"github.com/nexusops/sla-service/internal/domain"
	"github.com/nexusops/sla-service/internal/service"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

// DashboardHandler exposes the SLA dashboard endpoints.
type DashboardHandler struct {
	service *service.SLADashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.SLADashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Metrics GET /dashboard/sla/metrics.
func (h *DashboardHandler) Metrics(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	metrics, err := h.service.ComputeMetrics(c.Context(), principal.OrganizationID, c.Query("period", "7d"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

// Breached GET /dashboard/sla/breached.
func (h *DashboardHandler) Breached(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.GetBreachedSLAs(c.Context(), principal.OrganizationID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tickets})
}

// AtRisk GET /dashboard/sla/at-risk.
func (h *DashboardHandler) AtRisk(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.GetAtRiskSLAs(c.Context(), principal.OrganizationID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tickets})
}

// GetTargets GET /dashboard/sla/targets.
func (h *DashboardHandler) GetTargets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	targets, err := h.service.GetSLATargets(c.Context(), principal.OrganizationID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": targetResponses(targets)})
}

// UpdateTargets PUT /dashboard/sla/targets.
func (h *DashboardHandler) UpdateTargets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateSLATargetsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	inputs := make([]service.SLATargetInput, 0, len(req.Targets))
	for _, target := range req.Targets {
		inputs = append(inputs, service.SLATargetInput{
			Priority:           target.Priority,
			Name:               target.Name,
			Description:        target.Description,
			ResponseTimeMins:   target.ResponseTimeMins,
			ResolutionTimeMins: target.ResolutionTimeMins,
			BusinessHoursOnly:  target.BusinessHoursOnly,
			IsActive:           target.IsActive,
		})
	}

	targets, err := h.service.UpdateSLATargets(c.Context(), principal.OrganizationID, inputs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": targetResponses(targets)})
}

func targetResponses(targets []domain.SLATarget) []dto.SLATargetResponse {
	result := make([]dto.SLATargetResponse, 0, len(targets))
	for _, target := range targets {
		resp := dto.SLATargetResponse{
			ID:                 target.ID,
			Priority:           target.Priority,
			Name:               target.Name,
			Description:        target.Description,
			ResponseTimeMins:   target.ResponseTimeMins,
			ResolutionTimeMins: target.ResolutionTimeMins,
			BusinessHoursOnly:  target.BusinessHoursOnly,
			IsActive:           target.IsActive,
		}
		if !target.CreatedAt.IsZero() {
			createdAt := target.CreatedAt
			updatedAt := target.UpdatedAt
			resp.CreatedAt = &createdAt
			resp.UpdatedAt = &updatedAt
		}
		result = append(result, resp)
	}
	return result
}
