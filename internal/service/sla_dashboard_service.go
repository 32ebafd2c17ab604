package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexusops/sla-service/internal/domain"
	"github.com/nexusops/sla-service/internal/events"
	"github.com/nexusops/sla-service/internal/repository"
	"github.com/nexusops/sla-service/internal/systemlinks"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

// DefaultAtRiskWindow is the lookahead used to flag tickets whose deadline
// is approaching but not yet breached.
const DefaultAtRiskWindow = 30 * time.Minute

const defaultPeriodDays = 7

// breachSampleSize bounds the ticket samples embedded in metrics responses.
const breachSampleSize = 10

// MetricsCache stores serialized metrics payloads. Implementations must
// treat a miss as (nil, nil).
type MetricsCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// SLADashboardService computes compliance metrics, breach/at-risk listings
// and target configuration for the SLA dashboard.
type SLADashboardService struct {
	tickets      repository.TicketRepository
	targets      repository.SLATargetRepository
	calc         *SLACalculationService
	clock        Clock
	atRiskWindow time.Duration
	cache        MetricsCache
	cacheTTL     time.Duration
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// SLADashboardDependencies bundles collaborators for the dashboard service.
// Clock, Calc and AtRiskWindow fall back to production defaults when unset;
// Cache is optional.
type SLADashboardDependencies struct {
	TicketRepo   repository.TicketRepository
	TargetRepo   repository.SLATargetRepository
	Calc         *SLACalculationService
	Clock        Clock
	AtRiskWindow time.Duration
	Cache        MetricsCache
	CacheTTL     time.Duration
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewSLADashboardService constructs the service.
func NewSLADashboardService(deps SLADashboardDependencies) *SLADashboardService {
	calc := deps.Calc
	if calc == nil {
		calc = NewSLACalculationService()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	window := deps.AtRiskWindow
	if window <= 0 {
		window = DefaultAtRiskWindow
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLADashboardService{
		tickets:      deps.TicketRepo,
		targets:      deps.TargetRepo,
		calc:         calc,
		clock:        clock,
		atRiskWindow: window,
		cache:        deps.Cache,
		cacheTTL:     deps.CacheTTL,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// TicketSummary is the ticket projection embedded in dashboard responses.
type TicketSummary struct {
	ID               string                `json:"id"`
	ExternalKey      string                `json:"external_key"`
	Title            string                `json:"title"`
	Status           domain.TicketStatus   `json:"status"`
	Priority         domain.TicketPriority `json:"priority"`
	SLAResponseDue   *time.Time            `json:"sla_response_due,omitempty"`
	SLAResolutionDue *time.Time            `json:"sla_resolution_due,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

// SLAMilestoneSet carries a count plus a bounded ticket sample for one
// milestone axis.
type SLAMilestoneSet struct {
	Count   int             `json:"count"`
	Tickets []TicketSummary `json:"tickets"`
}

// SLAExceptionSummary aggregates both milestone axes. Total sums the two
// counts, so a ticket late on both axes counts twice; the axes are separate
// SLA dimensions.
type SLAExceptionSummary struct {
	Response   SLAMilestoneSet `json:"response"`
	Resolution SLAMilestoneSet `json:"resolution"`
	Total      int             `json:"total"`
}

// PrioritySLAMetrics carries the per-priority aggregates.
type PrioritySLAMetrics struct {
	Priority                domain.TicketPriority `json:"priority"`
	TotalIncidents          int                   `json:"total_incidents"`
	ResponseSLACompliance   string                `json:"response_sla_compliance"`
	ResolutionSLACompliance string                `json:"resolution_sla_compliance"`
}

// SLAMetrics is the dashboard aggregate for one organization and period.
type SLAMetrics struct {
	PeriodDays              int                  `json:"period_days"`
	TotalIncidents          int                  `json:"total_incidents"`
	ResponseSLACompliance   string               `json:"response_sla_compliance"`
	ResolutionSLACompliance string               `json:"resolution_sla_compliance"`
	Breaches                SLAExceptionSummary  `json:"breaches"`
	AtRisk                  SLAExceptionSummary  `json:"at_risk"`
	ByPriority              []PrioritySLAMetrics `json:"by_priority"`
	DailyTrend              []DailyTrendPoint    `json:"daily_trend"`
}

// BreachedTicket decorates a breached ticket with breach classification.
type BreachedTicket struct {
	TicketSummary
	BreachType     string    `json:"breach_type"`
	BreachedAt     time.Time `json:"breached_at"`
	MinutesOverdue int       `json:"minutes_overdue"`
}

// AtRiskTicket decorates an at-risk ticket with risk classification.
type AtRiskTicket struct {
	TicketSummary
	RiskType         string    `json:"risk_type"`
	DueAt            time.Time `json:"due_at"`
	MinutesRemaining int       `json:"minutes_remaining"`
}

// ComputeMetrics aggregates SLA compliance for the organization over the
// period expressed as a token like "7d" (unparsable input falls back to 7
// days). The computation is read-only; an empty ticket set yields zeroed
// aggregates, never an error.
func (s *SLADashboardService) ComputeMetrics(ctx context.Context, organizationID, period string) (*SLAMetrics, error) {
	days := parsePeriodDays(period)
	now := s.clock.Now()

	cacheKey := fmt.Sprintf("sla:metrics:%s:%dd", organizationID, days)
	if cached := s.cachedMetrics(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	start := now.AddDate(0, 0, -days)
	// Tickets without any SLA target attached carry no response due
	// timestamp and are excluded from compliance math entirely.
	base := repository.SLAFilter{
		OrganizationID: organizationID,
		CreatedFrom:    &start,
		HasResponseDue: true,
	}

	total, err := s.tickets.CountWithFilter(ctx, base)
	if err != nil {
		return nil, err
	}
	responseMet, err := s.countWhere(ctx, base, func(f *repository.SLAFilter) { f.ResponseMet = boolPtr(true) })
	if err != nil {
		return nil, err
	}
	resolutionMet, err := s.countWhere(ctx, base, func(f *repository.SLAFilter) { f.ResolutionMet = boolPtr(true) })
	if err != nil {
		return nil, err
	}

	breaches, err := s.exceptionSummary(ctx, base,
		func(f *repository.SLAFilter) {
			f.ResponseOverdueAt = &now
			f.OrderByResponseDue = true
		},
		func(f *repository.SLAFilter) {
			f.ResolutionOverdueAt = &now
			f.OrderByResolutionDue = true
		})
	if err != nil {
		return nil, err
	}

	window := repository.TimeWindow{From: now, To: now.Add(s.atRiskWindow)}
	atRisk, err := s.exceptionSummary(ctx, base,
		func(f *repository.SLAFilter) {
			f.ResponseDueWithin = &window
			f.OrderByResponseDue = true
		},
		func(f *repository.SLAFilter) {
			f.ResolutionDueWithin = &window
			f.OrderByResolutionDue = true
		})
	if err != nil {
		return nil, err
	}

	byPriority, err := s.priorityMetrics(ctx, base)
	if err != nil {
		return nil, err
	}

	included, err := s.tickets.ListWithFilter(ctx, base)
	if err != nil {
		return nil, err
	}

	metrics := &SLAMetrics{
		PeriodDays:              days,
		TotalIncidents:          total,
		ResponseSLACompliance:   s.calc.CompliancePercent(responseMet, total),
		ResolutionSLACompliance: s.calc.CompliancePercent(resolutionMet, total),
		Breaches:                breaches,
		AtRisk:                  atRisk,
		ByPriority:              byPriority,
		DailyTrend:              s.calc.DailyTrend(included),
	}

	s.storeMetrics(ctx, cacheKey, metrics)
	return metrics, nil
}

// GetBreachedSLAs returns every live breached ticket for the organization,
// classified per milestone axis, ordered by response due ascending with
// nulls last.
func (s *SLADashboardService) GetBreachedSLAs(ctx context.Context, organizationID string) ([]BreachedTicket, error) {
	now := s.clock.Now()
	tickets, err := s.tickets.ListBreached(ctx, organizationID, now)
	if err != nil {
		return nil, err
	}

	result := make([]BreachedTicket, 0, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		responseBreached := s.calc.ResponseBreached(t, now)
		resolutionBreached := s.calc.ResolutionBreached(t, now)
		if !responseBreached && !resolutionBreached {
			continue
		}

		breachType := "resolution"
		due := t.SLAResolutionDue
		switch {
		case responseBreached && resolutionBreached:
			breachType = "both"
			due = t.SLAResponseDue
		case responseBreached:
			breachType = "response"
			due = t.SLAResponseDue
		}

		result = append(result, BreachedTicket{
			TicketSummary:  ticketSummary(t),
			BreachType:     breachType,
			BreachedAt:     *due,
			MinutesOverdue: s.calc.MinutesOverdue(*due, now),
		})
	}
	return result, nil
}

// GetAtRiskSLAs returns every live ticket whose deadline falls inside the
// at-risk window, classified per milestone axis.
func (s *SLADashboardService) GetAtRiskSLAs(ctx context.Context, organizationID string) ([]AtRiskTicket, error) {
	now := s.clock.Now()
	tickets, err := s.tickets.ListAtRisk(ctx, organizationID, now, s.atRiskWindow)
	if err != nil {
		return nil, err
	}

	result := make([]AtRiskTicket, 0, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		responseAtRisk := s.calc.ResponseAtRisk(t, now, s.atRiskWindow)
		resolutionAtRisk := s.calc.ResolutionAtRisk(t, now, s.atRiskWindow)
		if !responseAtRisk && !resolutionAtRisk {
			continue
		}

		riskType := "resolution"
		due := t.SLAResolutionDue
		switch {
		case responseAtRisk && resolutionAtRisk:
			riskType = "both"
			due = t.SLAResponseDue
		case responseAtRisk:
			riskType = "response"
			due = t.SLAResponseDue
		}

		result = append(result, AtRiskTicket{
			TicketSummary:    ticketSummary(t),
			RiskType:         riskType,
			DueAt:            *due,
			MinutesRemaining: s.calc.MinutesRemaining(*due, now),
		})
	}
	return result, nil
}

// GetSLATargets returns exactly one target per priority in the fixed order
// critical, high, medium, low. Priorities without a persisted row get a
// synthesized default (inactive, empty ID); when duplicate rows exist the
// oldest wins.
func (s *SLADashboardService) GetSLATargets(ctx context.Context, organizationID string) ([]domain.SLATarget, error) {
	rows, err := s.targets.FindByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	// Rows arrive ordered by created_at ascending, so first seen wins.
	byPriority := make(map[domain.TicketPriority]domain.SLATarget, len(rows))
	for _, row := range rows {
		if _, ok := byPriority[row.Priority]; !ok {
			byPriority[row.Priority] = row
		}
	}

	result := make([]domain.SLATarget, 0, len(domain.Priorities))
	for _, priority := range domain.Priorities {
		if target, ok := byPriority[priority]; ok {
			result = append(result, target)
			continue
		}
		result = append(result, domain.DefaultSLATarget(organizationID, priority))
	}
	return result, nil
}

// SLATargetInput describes one target write. Nil optional fields fall back
// to computed defaults.
type SLATargetInput struct {
	Priority           domain.TicketPriority
	Name               *string
	Description        *string
	ResponseTimeMins   int
	ResolutionTimeMins int
	BusinessHoursOnly  *bool
	IsActive           *bool
}

// UpdateSLATargets validates and applies the given targets in a single
// all-or-nothing transaction, then returns the fresh merged target list.
func (s *SLADashboardService) UpdateSLATargets(ctx context.Context, organizationID string, inputs []SLATargetInput) ([]domain.SLATarget, error) {
	if len(inputs) == 0 {
		return nil, apperrors.NewValidationError("at least one target required", nil)
	}

	targets := make([]domain.SLATarget, 0, len(inputs))
	for _, input := range inputs {
		if !domain.IsValidPriority(input.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{
				"priority": string(input.Priority),
			})
		}
		if input.ResponseTimeMins < 1 || input.ResolutionTimeMins < 1 {
			return nil, apperrors.NewValidationError("response and resolution times must be at least 1 minute", map[string]any{
				"priority": string(input.Priority),
			})
		}

		target := domain.SLATarget{
			OrganizationID:     organizationID,
			Priority:           input.Priority,
			Name:               domain.DefaultTargetName(input.Priority),
			ResponseTimeMins:   input.ResponseTimeMins,
			ResolutionTimeMins: input.ResolutionTimeMins,
			BusinessHoursOnly:  true,
			IsActive:           true,
		}
		if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
			target.Name = *input.Name
		}
		if input.Description != nil {
			target.Description = *input.Description
		}
		if input.BusinessHoursOnly != nil {
			target.BusinessHoursOnly = *input.BusinessHoursOnly
		}
		if input.IsActive != nil {
			target.IsActive = *input.IsActive
		}
		targets = append(targets, target)
	}

	if err := s.targets.UpsertTargets(ctx, organizationID, targets); err != nil {
		return nil, err
	}

	s.publishTargetsUpdated(ctx, organizationID, targets)
	return s.GetSLATargets(ctx, organizationID)
}

func (s *SLADashboardService) publishTargetsUpdated(ctx context.Context, organizationID string, targets []domain.SLATarget) {
	if s.dispatcher == nil {
		return
	}
	systemRecordID := systemlinks.ToSystemRecordID("organization", organizationID)
	priorities := make([]domain.TicketPriority, 0, len(targets))
	related := []systemlinks.RelatedRecord{
		{Type: "organization", ID: organizationID, Relationship: "owner"},
	}
	for _, target := range targets {
		priorities = append(priorities, target.Priority)
		related = append(related, systemlinks.RelatedRecord{
			Type:         "sla_target",
			ID:           string(target.Priority),
			Relationship: "configures",
		})
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           events.EventSLATargetsUpdated,
		OrganizationID: organizationID,
		SystemRecordID: systemRecordID,
		Trace:          systemlinks.ToTraceContext(systemRecordID),
		Related:        systemlinks.BuildRelatedRecords(related),
		Timestamp:      s.clock.Now(),
		Payload:        events.SLATargetsUpdatedPayload{Priorities: priorities},
	})
}

func (s *SLADashboardService) countWhere(ctx context.Context, base repository.SLAFilter, apply func(*repository.SLAFilter)) (int, error) {
	filter := base
	apply(&filter)
	return s.tickets.CountWithFilter(ctx, filter)
}

func (s *SLADashboardService) milestoneSet(ctx context.Context, base repository.SLAFilter, apply func(*repository.SLAFilter)) (SLAMilestoneSet, error) {
	count, err := s.countWhere(ctx, base, apply)
	if err != nil {
		return SLAMilestoneSet{}, err
	}

	filter := base
	apply(&filter)
	filter.Limit = breachSampleSize
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return SLAMilestoneSet{}, err
	}

	sample := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		sample = append(sample, ticketSummary(&tickets[i]))
	}
	return SLAMilestoneSet{Count: count, Tickets: sample}, nil
}

func (s *SLADashboardService) exceptionSummary(ctx context.Context, base repository.SLAFilter, applyResponse, applyResolution func(*repository.SLAFilter)) (SLAExceptionSummary, error) {
	response, err := s.milestoneSet(ctx, base, applyResponse)
	if err != nil {
		return SLAExceptionSummary{}, err
	}
	resolution, err := s.milestoneSet(ctx, base, applyResolution)
	if err != nil {
		return SLAExceptionSummary{}, err
	}
	return SLAExceptionSummary{
		Response:   response,
		Resolution: resolution,
		Total:      response.Count + resolution.Count,
	}, nil
}

func (s *SLADashboardService) priorityMetrics(ctx context.Context, base repository.SLAFilter) ([]PrioritySLAMetrics, error) {
	result := make([]PrioritySLAMetrics, 0, len(domain.Priorities))
	for _, priority := range domain.Priorities {
		p := priority
		total, err := s.countWhere(ctx, base, func(f *repository.SLAFilter) { f.Priority = &p })
		if err != nil {
			return nil, err
		}
		responseMet, err := s.countWhere(ctx, base, func(f *repository.SLAFilter) {
			f.Priority = &p
			f.ResponseMet = boolPtr(true)
		})
		if err != nil {
			return nil, err
		}
		resolutionMet, err := s.countWhere(ctx, base, func(f *repository.SLAFilter) {
			f.Priority = &p
			f.ResolutionMet = boolPtr(true)
		})
		if err != nil {
			return nil, err
		}

		result = append(result, PrioritySLAMetrics{
			Priority:                priority,
			TotalIncidents:          total,
			ResponseSLACompliance:   s.calc.CompliancePercent(responseMet, total),
			ResolutionSLACompliance: s.calc.CompliancePercent(resolutionMet, total),
		})
	}
	return result, nil
}

func (s *SLADashboardService) cachedMetrics(ctx context.Context, key string) *SLAMetrics {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Debug("metrics cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if payload == nil {
		return nil
	}
	var metrics SLAMetrics
	if err := json.Unmarshal(payload, &metrics); err != nil {
		s.logger.Debug("metrics cache payload invalid", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &metrics
}

func (s *SLADashboardService) storeMetrics(ctx context.Context, key string, metrics *SLAMetrics) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logger.Debug("metrics cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func parsePeriodDays(period string) int {
	token := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(period)), "d")
	days, err := strconv.Atoi(token)
	if err != nil || days <= 0 {
		return defaultPeriodDays
	}
	return days
}

func ticketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:               t.ID,
		ExternalKey:      t.ExternalKey,
		Title:            t.Title,
		Status:           t.Status,
		Priority:         t.Priority,
		SLAResponseDue:   t.SLAResponseDue,
		SLAResolutionDue: t.SLAResolutionDue,
		CreatedAt:        t.CreatedAt,
	}
}

func boolPtr(v bool) *bool { return &v }
