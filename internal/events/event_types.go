package events

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketHeld          EventType = "ticket_held"
	EventTicketResumed       EventType = "ticket_resumed"
	EventWorkStarted         EventType = "work_started"
	EventWorkStopped         EventType = "work_stopped"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketID     string      `json:"ticket_id"`
	DispatcherID *string     `json:"dispatcher_id,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	CustomerName string                `json:"customer_name"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID string    `json:"technician_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	DurationMin  int       `json:"duration_minutes"`
	Override     bool      `json:"override"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketHeldPayload payload.
type TicketHeldPayload struct {
	HoldID       string          `json:"hold_id"`
	HoldType     domain.HoldType `json:"hold_type"`
	Summary      string          `json:"summary"`
	TimerStopped bool            `json:"timer_stopped"`
}

// TicketResumedPayload payload.
type TicketResumedPayload struct {
	HoldID          string          `json:"hold_id"`
	HoldType        domain.HoldType `json:"hold_type"`
	ResolutionNotes *string         `json:"resolution_notes,omitempty"`
}

// WorkTimerPayload payload for work_started and work_stopped.
type WorkTimerPayload struct {
	TechnicianID string `json:"technician_id"`
	TimeLogID    string `json:"time_log_id"`
}
