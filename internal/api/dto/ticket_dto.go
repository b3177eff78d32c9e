package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// CreateTicketRequest is the intake payload.
type CreateTicketRequest struct {
	CustomerName string                `json:"customer_name"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
}

// ChangeStatusRequest moves a ticket through its lifecycle.
type ChangeStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// ChangePriorityRequest rewrites dispatch priority.
type ChangePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// TicketSummary is the list-view projection.
type TicketSummary struct {
	ID              string                `json:"id"`
	TicketNumber    string                `json:"ticket_number"`
	CustomerName    string                `json:"customer_name"`
	Title           string                `json:"title"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	TechnicianID    *string               `json:"technician_id,omitempty"`
	ScheduledAt     *time.Time            `json:"scheduled_at,omitempty"`
	DurationMinutes int                   `json:"duration_minutes"`
	HoldActive      bool                  `json:"hold_active"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketDetailResponse is the aggregated detail projection.
type TicketDetailResponse struct {
	TicketSummary
	Description string                  `json:"description"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	ActiveHold  *HoldResponse           `json:"active_hold,omitempty"`
	Holds       []HoldResponse          `json:"holds"`
	TimeLogs    []TimeLogResponse       `json:"time_logs"`
	History     []TicketHistoryResponse `json:"history"`
}

// TimeLogResponse is a billable timer entry.
type TimeLogResponse struct {
	ID           string     `json:"id"`
	TechnicianID string     `json:"technician_id"`
	TicketID     string     `json:"ticket_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// TicketHistoryResponse is an audit entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	ChangedByID *string                 `json:"changed_by_id,omitempty"`
	OldValue    map[string]any          `json:"old_value,omitempty"`
	NewValue    map[string]any          `json:"new_value,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}
