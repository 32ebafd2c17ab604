package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexusops/sla-service/internal/domain"
	"github.com/nexusops/sla-service/internal/events"
	"github.com/nexusops/sla-service/internal/repository"
	"github.com/nexusops/sla-service/internal/systemlinks"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

// TargetResolver supplies the effective SLA target set for an organization.
// Satisfied by SLADashboardService.
type TargetResolver interface {
	GetSLATargets(ctx context.Context, organizationID string) ([]domain.SLATarget, error)
}

// TicketService coordinates ticket intake and SLA milestone transitions.
type TicketService struct {
	tickets    repository.TicketRepository
	resolver   TargetResolver
	calc       *SLACalculationService
	clock      Clock
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Resolver   TargetResolver
	Calc       *SLACalculationService
	Clock      Clock
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload. TraceSources are
// scanned in order for correlation identifiers; typically the request body
// fields first, then the transport headers.
type TicketCreateInput struct {
	Title        string
	Description  string
	Priority     domain.TicketPriority
	TraceSources []map[string]string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	calc := deps.Calc
	if calc == nil {
		calc = NewSLACalculationService()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		resolver:   deps.Resolver,
		calc:       calc,
		clock:      clock,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket creates a ticket, stamping SLA deadlines from the matching
// active target and correlation fields from the input trace sources. When
// the effective target for the priority is inactive the ticket carries no
// deadlines and is excluded from compliance math.
func (s *TicketService) CreateTicket(ctx context.Context, organizationID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.IsValidPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{
			"priority": string(priority),
		})
	}

	targets, err := s.resolver.GetSLATargets(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	target := targetFor(targets, priority)

	now := s.clock.Now()
	ticket := &domain.Ticket{
		OrganizationID: organizationID,
		ExternalKey:    generateTicketKey(),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.TicketStatusOpen,
		Priority:       priority,
	}
	if target.IsActive {
		responseDue, resolutionDue := s.calc.Deadlines(target, now)
		ticket.SLAResponseDue = &responseDue
		ticket.SLAResolutionDue = &resolutionDue
	}

	ticket.SystemRecordID = systemlinks.ToSystemRecordID("ticket", ticket.ExternalKey)
	trace := systemlinks.ToTraceContext(ticket.SystemRecordID, input.TraceSources...)
	ticket.CorrelationID = optionalString(trace.CorrelationID)
	ticket.CausationID = optionalString(trace.CausationID)
	ticket.TraceID = optionalString(trace.TraceID)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:           events.EventTicketCreated,
		OrganizationID: organizationID,
		SystemRecordID: ticket.SystemRecordID,
		Trace:          trace,
		Related: systemlinks.BuildRelatedRecords([]systemlinks.RelatedRecord{
			{Type: "ticket", ID: ticket.ID},
			{Type: "organization", ID: organizationID, Relationship: "owner"},
			{Type: "sla_target", ID: target.ID, Relationship: "applies"},
		}),
		Payload: events.TicketCreatedPayload{
			TicketID:         ticket.ID,
			ExternalKey:      ticket.ExternalKey,
			Priority:         ticket.Priority,
			SLAResponseDue:   ticket.SLAResponseDue,
			SLAResolutionDue: ticket.SLAResolutionDue,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket scoped to the organization.
func (s *TicketService) GetTicket(ctx context.Context, organizationID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.OrganizationID != organizationID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	return ticket, nil
}

// ListTickets returns recent tickets for the organization.
func (s *TicketService) ListTickets(ctx context.Context, organizationID string, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.tickets.ListWithFilter(ctx, repository.SLAFilter{
		OrganizationID: organizationID,
		Limit:          limit,
		Offset:         offset,
	})
}

// MarkResponded records the first-response milestone and finalizes the
// response met flag against the stamped deadline.
func (s *TicketService) MarkResponded(ctx context.Context, organizationID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, organizationID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.SLAResponseAt != nil {
		return nil, apperrors.NewConflict("ticket already responded", nil)
	}

	now := s.clock.Now()
	ticket.SLAResponseAt = &now
	if ticket.SLAResponseDue != nil {
		met := !now.After(*ticket.SLAResponseDue)
		ticket.SLAResponseMet = &met
	}
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusInProgress
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishMilestone(ctx, ticket, events.EventTicketResponded, "response", now, ticket.SLAResponseMet)
	return ticket, nil
}

// MarkResolved records the resolution milestone and finalizes the
// resolution met flag against the stamped deadline.
func (s *TicketService) MarkResolved(ctx context.Context, organizationID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, organizationID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ResolvedAt != nil {
		return nil, apperrors.NewConflict("ticket already resolved", nil)
	}

	now := s.clock.Now()
	ticket.ResolvedAt = &now
	if ticket.SLAResolutionDue != nil {
		met := !now.After(*ticket.SLAResolutionDue)
		ticket.SLAResolutionMet = &met
	}
	ticket.Status = domain.TicketStatusResolved

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishMilestone(ctx, ticket, events.EventTicketResolved, "resolution", now, ticket.SLAResolutionMet)
	return ticket, nil
}

func (s *TicketService) publishMilestone(ctx context.Context, ticket *domain.Ticket, eventType events.EventType, milestone string, occurredAt time.Time, met *bool) {
	s.publishEvent(ctx, events.Event{
		Type:           eventType,
		OrganizationID: ticket.OrganizationID,
		SystemRecordID: ticket.SystemRecordID,
		Trace: systemlinks.ToTraceContext(ticket.SystemRecordID, map[string]string{
			"correlation_id": stringValue(ticket.CorrelationID),
			"causation_id":   stringValue(ticket.CausationID),
			"trace_id":       stringValue(ticket.TraceID),
		}),
		Related: systemlinks.BuildRelatedRecords([]systemlinks.RelatedRecord{
			{Type: "ticket", ID: ticket.ID},
			{Type: "organization", ID: ticket.OrganizationID, Relationship: "owner"},
		}),
		Payload: events.TicketMilestonePayload{
			TicketID:   ticket.ID,
			Milestone:  milestone,
			OccurredAt: occurredAt,
			Met:        met,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func targetFor(targets []domain.SLATarget, priority domain.TicketPriority) domain.SLATarget {
	for _, target := range targets {
		if target.Priority == priority {
			return target
		}
	}
	// GetSLATargets always yields all four priorities; this is a safety
	// net for custom resolvers.
	return domain.DefaultSLATarget("", priority)
}

func generateTicketKey() string {
	return "NXO-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
