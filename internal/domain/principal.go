package domain

// Role enumerates service-account permission levels.
type Role string

const (
	// RoleReader may read dashboards, targets and tickets.
	RoleReader Role = "READER"
	// RoleAdmin may additionally update SLA targets and drive ticket
	// milestones.
	RoleAdmin Role = "ADMIN"
)
