package domain

import (
	"strings"
	"time"
)

// SLATarget configures response/resolution deadlines for one priority of one
// organization. One logical row per (organization, priority); when duplicate
// rows exist the oldest by creation time wins.
type SLATarget struct {
	ID                 string
	OrganizationID     string
	Priority           TicketPriority
	Name               string
	Description        string
	ResponseTimeMins   int
	ResolutionTimeMins int
	BusinessHoursOnly  bool
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TargetDefaults holds the default deadline minutes for a priority.
type TargetDefaults struct {
	ResponseTimeMins   int
	ResolutionTimeMins int
}

// DefaultTargetTable maps each priority to its default deadline minutes,
// consulted whenever no persisted target row exists.
var DefaultTargetTable = map[TicketPriority]TargetDefaults{
	TicketPriorityCritical: {ResponseTimeMins: 15, ResolutionTimeMins: 120},
	TicketPriorityHigh:     {ResponseTimeMins: 30, ResolutionTimeMins: 240},
	TicketPriorityMedium:   {ResponseTimeMins: 60, ResolutionTimeMins: 480},
	TicketPriorityLow:      {ResponseTimeMins: 120, ResolutionTimeMins: 1440},
}

// DefaultTargetName returns the fallback display name for a priority.
func DefaultTargetName(p TicketPriority) string {
	return strings.ToUpper(string(p)) + " SLA"
}

// DefaultSLATarget synthesizes an unpersisted target for the given priority.
// Synthesized targets carry an empty ID and IsActive false so callers can
// tell them apart from configured rows.
func DefaultSLATarget(organizationID string, p TicketPriority) SLATarget {
	defaults := DefaultTargetTable[p]
	return SLATarget{
		OrganizationID:     organizationID,
		Priority:           p,
		Name:               DefaultTargetName(p),
		ResponseTimeMins:   defaults.ResponseTimeMins,
		ResolutionTimeMins: defaults.ResolutionTimeMins,
		BusinessHoursOnly:  true,
		IsActive:           false,
	}
}
