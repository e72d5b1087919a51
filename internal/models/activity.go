package models

import "time"

const (
	ActivityInProgress = "in_progress"
	ActivityCompleted  = "completed"
	ActivityCancelled  = "cancelled"
)

var activityStatuses = map[string]struct{}{
	ActivityInProgress: {},
	ActivityCompleted:  {},
	ActivityCancelled:  {},
}

var shifts = map[string]struct{}{
	"morning":   {},
	"afternoon": {},
	"evening":   {},
}

func ValidActivityStatus(s string) bool {
	_, ok := activityStatuses[s]
	return ok
}

func ValidShift(s string) bool {
	_, ok := shifts[s]
	return ok
}

// Activity is a logged lab event, e.g. EQUIP_ON performed in a department.
type Activity struct {
	ID           string         `json:"id"`
	DepartmentID string         `json:"department_id"`
	ActivityType string         `json:"activity_type"`
	PerformedBy  *string        `json:"performed_by,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Status       string         `json:"status"`
	Shift        *string        `json:"shift,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
