package dto

import (
	"time"

	"github.com/nexusops/sla-service/internal/domain"
)

// SLATargetDto is one target in a PUT /dashboard/sla/targets body. Optional
// fields are pointers so omitted values fall back to computed defaults.
type SLATargetDto struct {
	Priority           domain.TicketPriority `json:"priority"`
	Name               *string               `json:"name"`
	Description        *string               `json:"description"`
	ResponseTimeMins   int                   `json:"response_time_mins"`
	ResolutionTimeMins int                   `json:"resolution_time_mins"`
	BusinessHoursOnly  *bool                 `json:"business_hours_only"`
	IsActive           *bool                 `json:"is_active"`
}

// UpdateSLATargetsRequest payload.
type UpdateSLATargetsRequest struct {
	Targets []SLATargetDto `json:"targets"`
}

// SLATargetResponse response. Synthesized defaults carry an empty id.
type SLATargetResponse struct {
	ID                 string                `json:"id,omitempty"`
	Priority           domain.TicketPriority `json:"priority"`
	Name               string                `json:"name"`
	Description        string                `json:"description,omitempty"`
	ResponseTimeMins   int                   `json:"response_time_mins"`
	ResolutionTimeMins int                   `json:"resolution_time_mins"`
	BusinessHoursOnly  bool                  `json:"business_hours_only"`
	IsActive           bool                  `json:"is_active"`
	CreatedAt          *time.Time            `json:"created_at,omitempty"`
	UpdatedAt          *time.Time            `json:"updated_at,omitempty"`
}
