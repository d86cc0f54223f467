package constants

// Roles
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Time recording types
const (
	RecordingArrival   = "Arrival"
	RecordingDeparture = "Departure"
)
