package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nexusops/sla-service/internal/api/dto"
	"github.com/nexusops/sla-service/internal/auth"
	"github.com/nexusops/sla-service/internal/domain"
	"github.com/nexusops/sla-service/internal/service"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket intake and milestone endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		TraceSources: []map[string]string{
			{
				"correlation_id": req.CorrelationID,
				"causation_id":   req.CausationID,
				"trace_id":       req.TraceID,
			},
			{
				"correlation_id": c.Get("X-Correlation-ID"),
				"causation_id":   c.Get("X-Causation-ID"),
				"trace_id":       c.Get("X-Trace-ID"),
			},
		},
	}
	ticket, err := h.service.CreateTicket(c.Context(), principal.OrganizationID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	tickets, err := h.service.ListTickets(c.Context(), principal.OrganizationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.Context(), principal.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// MarkResponded POST /tickets/:id/respond.
func (h *TicketsHandler) MarkResponded(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.MarkResponded(c.Context(), principal.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// MarkResolved POST /tickets/:id/resolve.
func (h *TicketsHandler) MarkResolved(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.MarkResolved(c.Context(), principal.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:               ticket.ID,
		ExternalKey:      ticket.ExternalKey,
		Title:            ticket.Title,
		Description:      ticket.Description,
		Status:           ticket.Status,
		Priority:         ticket.Priority,
		SystemRecordID:   ticket.SystemRecordID,
		CorrelationID:    ticket.CorrelationID,
		CausationID:      ticket.CausationID,
		TraceID:          ticket.TraceID,
		SLAResponseDue:   ticket.SLAResponseDue,
		SLAResolutionDue: ticket.SLAResolutionDue,
		SLAResponseAt:    ticket.SLAResponseAt,
		ResolvedAt:       ticket.ResolvedAt,
		SLAResponseMet:   ticket.SLAResponseMet,
		SLAResolutionMet: ticket.SLAResolutionMet,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
}
