package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nexusops/sla-service/internal/domain"
	"github.com/nexusops/sla-service/internal/events"
	"github.com/nexusops/sla-service/internal/repository"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

// fixedClock pins Now for deterministic deadline math.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// fakeTicketRepository is an in-memory TicketRepository evaluating the same
// predicates the SQL layer builds.
type fakeTicketRepository struct {
	mu      sync.Mutex
	tickets []domain.Ticket
	nextID  int
}

func newFakeTicketRepository(tickets ...domain.Ticket) *fakeTicketRepository {
	return &fakeTicketRepository{tickets: tickets}
}

func (r *fakeTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets = append(r.tickets, *ticket)
	return nil
}

func (r *fakeTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickets {
		if r.tickets[i].ID == ticket.ID {
			r.tickets[i] = *ticket
			return nil
		}
	}
	return apperrors.NewNotFound("ticket", nil)
}

func (r *fakeTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickets {
		if r.tickets[i].ID == id {
			t := r.tickets[i]
			return &t, nil
		}
	}
	return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
}

func (r *fakeTicketRepository) ListWithFilter(_ context.Context, filter repository.SLAFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]domain.Ticket, 0)
	for _, t := range r.tickets {
		if matchesFilter(t, filter) {
			matched = append(matched, t)
		}
	}

	switch {
	case filter.OrderByResponseDue:
		sortByDue(matched, func(t domain.Ticket) *time.Time { return t.SLAResponseDue })
	case filter.OrderByResolutionDue:
		sortByDue(matched, func(t domain.Ticket) *time.Time { return t.SLAResolutionDue })
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *fakeTicketRepository) CountWithFilter(ctx context.Context, filter repository.SLAFilter) (int, error) {
	filter.Limit = 0
	filter.Offset = 0
	tickets, err := r.ListWithFilter(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(tickets), nil
}

func (r *fakeTicketRepository) ListBreached(ctx context.Context, organizationID string, now time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]domain.Ticket, 0)
	for _, t := range r.tickets {
		if t.OrganizationID != organizationID {
			continue
		}
		responseLate := t.SLAResponseDue != nil && t.SLAResponseDue.Before(now) && t.SLAResponseAt == nil
		resolutionLate := t.SLAResolutionDue != nil && t.SLAResolutionDue.Before(now) && t.ResolvedAt == nil
		if responseLate || resolutionLate {
			matched = append(matched, t)
		}
	}
	sortByDue(matched, func(t domain.Ticket) *time.Time { return t.SLAResponseDue })
	return matched, nil
}

func (r *fakeTicketRepository) ListAtRisk(ctx context.Context, organizationID string, now time.Time, window time.Duration) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	end := now.Add(window)
	matched := make([]domain.Ticket, 0)
	for _, t := range r.tickets {
		if t.OrganizationID != organizationID {
			continue
		}
		responseSoon := t.SLAResponseDue != nil && t.SLAResponseDue.After(now) && !t.SLAResponseDue.After(end) && t.SLAResponseAt == nil
		resolutionSoon := t.SLAResolutionDue != nil && t.SLAResolutionDue.After(now) && !t.SLAResolutionDue.After(end) && t.ResolvedAt == nil
		if responseSoon || resolutionSoon {
			matched = append(matched, t)
		}
	}
	sortByDue(matched, func(t domain.Ticket) *time.Time { return t.SLAResponseDue })
	return matched, nil
}

func matchesFilter(t domain.Ticket, f repository.SLAFilter) bool {
	if t.OrganizationID != f.OrganizationID {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, status := range f.Statuses {
			if t.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.HasResponseDue && t.SLAResponseDue == nil {
		return false
	}
	if f.ResponseMet != nil && (t.SLAResponseMet == nil || *t.SLAResponseMet != *f.ResponseMet) {
		return false
	}
	if f.ResolutionMet != nil && (t.SLAResolutionMet == nil || *t.SLAResolutionMet != *f.ResolutionMet) {
		return false
	}
	if f.ResponseOverdueAt != nil {
		if t.SLAResponseDue == nil || !t.SLAResponseDue.Before(*f.ResponseOverdueAt) || t.SLAResponseAt != nil {
			return false
		}
	}
	if f.ResolutionOverdueAt != nil {
		if t.SLAResolutionDue == nil || !t.SLAResolutionDue.Before(*f.ResolutionOverdueAt) || t.ResolvedAt != nil {
			return false
		}
	}
	if f.ResponseDueWithin != nil {
		w := f.ResponseDueWithin
		if t.SLAResponseDue == nil || !t.SLAResponseDue.After(w.From) || t.SLAResponseDue.After(w.To) || t.SLAResponseAt != nil {
			return false
		}
	}
	if f.ResolutionDueWithin != nil {
		w := f.ResolutionDueWithin
		if t.SLAResolutionDue == nil || !t.SLAResolutionDue.After(w.From) || t.SLAResolutionDue.After(w.To) || t.ResolvedAt != nil {
			return false
		}
	}
	return true
}

func sortByDue(tickets []domain.Ticket, due func(domain.Ticket) *time.Time) {
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := due(tickets[i]), due(tickets[j])
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
}

// fakeTargetRepository is an in-memory SLATargetRepository.
type fakeTargetRepository struct {
	mu      sync.Mutex
	targets []domain.SLATarget
	nextID  int
}

func newFakeTargetRepository(targets ...domain.SLATarget) *fakeTargetRepository {
	return &fakeTargetRepository{targets: targets}
}

func (r *fakeTargetRepository) FindByOrganization(_ context.Context, organizationID string) ([]domain.SLATarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.SLATarget, 0)
	for _, target := range r.targets {
		if target.OrganizationID == organizationID {
			result = append(result, target)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeTargetRepository) UpsertTargets(_ context.Context, organizationID string, targets []domain.SLATarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, incoming := range targets {
		updated := false
		oldest := -1
		for i := range r.targets {
			if r.targets[i].OrganizationID != organizationID || r.targets[i].Priority != incoming.Priority {
				continue
			}
			if oldest == -1 || r.targets[i].CreatedAt.Before(r.targets[oldest].CreatedAt) {
				oldest = i
			}
		}
		if oldest >= 0 {
			incoming.ID = r.targets[oldest].ID
			incoming.OrganizationID = organizationID
			incoming.CreatedAt = r.targets[oldest].CreatedAt
			r.targets[oldest] = incoming
			updated = true
		}
		if !updated {
			r.nextID++
			incoming.ID = fmt.Sprintf("target-%d", r.nextID)
			incoming.OrganizationID = organizationID
			incoming.CreatedAt = time.Now()
			r.targets = append(r.targets, incoming)
		}
	}
	return nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}

// memoryMetricsCache implements MetricsCache over a map.
type memoryMetricsCache struct {
	mu    sync.Mutex
	store map[string][]byte
	gets  int
	sets  int
}

func newMemoryMetricsCache() *memoryMetricsCache {
	return &memoryMetricsCache{store: make(map[string][]byte)}
}

func (c *memoryMetricsCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	payload, ok := c.store[key]
	if !ok {
		return nil, nil
	}
	return payload, nil
}

func (c *memoryMetricsCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.store[key] = payload
	return nil
}
