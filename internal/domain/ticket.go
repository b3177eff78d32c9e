package domain

import "time"

// TicketStatus enumerates lifecycle states for service tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusScheduled  TicketStatus = "SCHEDULED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// ActiveStatuses are the statuses whose scheduled slots count as
// commitments for conflict detection.
var ActiveStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusScheduled,
	TicketStatusInProgress,
}

// IsActiveStatus reports whether the status belongs to the active set.
func IsActiveStatus(status TicketStatus) bool {
	for _, candidate := range ActiveStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// TicketPriority enumerates dispatch urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// DefaultDurationMinutes is the scheduled window length applied when a
// ticket is assigned without an explicit duration.
const DefaultDurationMinutes = 120

// Ticket is the aggregate for field-service work orders.
type Ticket struct {
	ID              string
	TicketNumber    string
	CustomerName    string
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	TechnicianID    *string
	ScheduledAt     *time.Time
	DurationMinutes int
	HoldActive      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// ScheduledEnd returns the end of the ticket's scheduled window, or the
// zero time when the ticket is unscheduled.
func (t *Ticket) ScheduledEnd() time.Time {
	if t.ScheduledAt == nil {
		return time.Time{}
	}
	minutes := t.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	return t.ScheduledAt.Add(time.Duration(minutes) * time.Minute)
}
