package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/nexusops/sla-service/internal/domain"
)

// SLACalculationService holds the deadline math shared by the dashboard and
// ticket intake paths. All methods are pure; time is always passed in.
type SLACalculationService struct{}

// NewSLACalculationService constructs the calculator.
func NewSLACalculationService() *SLACalculationService {
	return &SLACalculationService{}
}

// CompliancePercent formats met/total as a percentage string with one
// decimal place. A zero total yields "0%" rather than dividing by zero.
func (s *SLACalculationService) CompliancePercent(met, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(met)/float64(total)*100)
}

// Deadlines computes the response and resolution due timestamps for a ticket
// created at createdAt under the given target.
func (s *SLACalculationService) Deadlines(target domain.SLATarget, createdAt time.Time) (responseDue, resolutionDue time.Time) {
	responseDue = createdAt.Add(time.Duration(target.ResponseTimeMins) * time.Minute)
	resolutionDue = createdAt.Add(time.Duration(target.ResolutionTimeMins) * time.Minute)
	return responseDue, resolutionDue
}

// ResponseBreached reports whether the response milestone is breached at
// now: the due timestamp exists, lies strictly in the past and the milestone
// has not occurred.
func (s *SLACalculationService) ResponseBreached(t *domain.Ticket, now time.Time) bool {
	return t.SLAResponseDue != nil && t.SLAResponseDue.Before(now) && t.SLAResponseAt == nil
}

// ResolutionBreached is the resolution-axis analog of ResponseBreached.
func (s *SLACalculationService) ResolutionBreached(t *domain.Ticket, now time.Time) bool {
	return t.SLAResolutionDue != nil && t.SLAResolutionDue.Before(now) && t.ResolvedAt == nil
}

// ResponseAtRisk reports whether the response due timestamp is strictly in
// the future but within the lookahead window, with the milestone still
// pending. Mutually exclusive with ResponseBreached for the same now.
func (s *SLACalculationService) ResponseAtRisk(t *domain.Ticket, now time.Time, window time.Duration) bool {
	if t.SLAResponseDue == nil || t.SLAResponseAt != nil {
		return false
	}
	due := *t.SLAResponseDue
	return due.After(now) && !due.After(now.Add(window))
}

// ResolutionAtRisk is the resolution-axis analog of ResponseAtRisk.
func (s *SLACalculationService) ResolutionAtRisk(t *domain.Ticket, now time.Time, window time.Duration) bool {
	if t.SLAResolutionDue == nil || t.ResolvedAt != nil {
		return false
	}
	due := *t.SLAResolutionDue
	return due.After(now) && !due.After(now.Add(window))
}

// MinutesOverdue returns whole minutes elapsed since due, floored, never
// negative.
func (s *SLACalculationService) MinutesOverdue(due, now time.Time) int {
	minutes := int(now.Sub(due) / time.Minute)
	if minutes < 0 {
		return 0
	}
	return minutes
}

// MinutesRemaining returns whole minutes until due, floored, never negative.
func (s *SLACalculationService) MinutesRemaining(due, now time.Time) int {
	minutes := int(due.Sub(now) / time.Minute)
	if minutes < 0 {
		return 0
	}
	return minutes
}

// DailyTrendPoint aggregates one UTC calendar day of the included set.
type DailyTrendPoint struct {
	Date                    string `json:"date"`
	TotalIncidents          int    `json:"total_incidents"`
	ResponseSLACompliance   string `json:"response_sla_compliance"`
	ResolutionSLACompliance string `json:"resolution_sla_compliance"`
}

// DailyTrend groups tickets by the UTC date of their creation, ascending,
// computing per-day totals and compliance percentages.
func (s *SLACalculationService) DailyTrend(tickets []domain.Ticket) []DailyTrendPoint {
	type bucket struct {
		total         int
		responseMet   int
		resolutionMet int
	}
	buckets := make(map[string]*bucket)
	for i := range tickets {
		day := tickets[i].CreatedAt.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.total++
		if tickets[i].SLAResponseMet != nil && *tickets[i].SLAResponseMet {
			b.responseMet++
		}
		if tickets[i].SLAResolutionMet != nil && *tickets[i].SLAResolutionMet {
			b.resolutionMet++
		}
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	trend := make([]DailyTrendPoint, 0, len(days))
	for _, day := range days {
		b := buckets[day]
		trend = append(trend, DailyTrendPoint{
			Date:                    day,
			TotalIncidents:          b.total,
			ResponseSLACompliance:   s.CompliancePercent(b.responseMet, b.total),
			ResolutionSLACompliance: s.CompliancePercent(b.resolutionMet, b.total),
		})
	}
	return trend
}
