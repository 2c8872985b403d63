package tickets

import "time"

// Status values a repair ticket moves through. Workflow rules beyond simple
// transitions live outside this module.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCollected  = "collected"
)

// Ticket represents a device repair job.
type Ticket struct {
	ID           int64
	CustomerName string
	Device       string
	Issue        string
	Status       string
	CreatedBy    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidStatus reports whether s is a recognised ticket status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusCollected:
		return true
	}
	return false
}
