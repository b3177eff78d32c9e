package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// PartsLineRequest is one requested part line.
type PartsLineRequest struct {
	PartID          string  `json:"part_id"`
	Quantity        int     `json:"quantity"`
	Notes           string  `json:"notes"`
	PreferredSource *string `json:"preferred_source,omitempty"`
}

// PartsHoldRequest pauses a ticket pending parts.
type PartsHoldRequest struct {
	Urgency domain.HoldUrgency `json:"urgency"`
	Summary string             `json:"summary"`
	Notes   string             `json:"notes"`
	Items   []PartsLineRequest `json:"items"`
}

// IssueReportRequest pauses a ticket pending issue resolution.
type IssueReportRequest struct {
	Category    domain.IssueCategory `json:"category"`
	Severity    domain.IssueSeverity `json:"severity"`
	Description string               `json:"description"`
	Summary     string               `json:"summary"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
}

// ResumeRequest clears the active hold.
type ResumeRequest struct {
	ResolutionNotes *string `json:"resolution_notes,omitempty"`
}

// HoldReceiptResponse reports a placed hold.
type HoldReceiptResponse struct {
	HoldID       string `json:"hold_id"`
	DetailID     string `json:"detail_id"`
	TimerStopped bool   `json:"timer_stopped"`
}

// HoldResponse is a hold record, active or resolved.
type HoldResponse struct {
	ID              string             `json:"id"`
	TicketID        string             `json:"ticket_id"`
	Type            domain.HoldType    `json:"type"`
	Urgency         domain.HoldUrgency `json:"urgency"`
	Summary         string             `json:"summary"`
	Notes           string             `json:"notes,omitempty"`
	Active          bool               `json:"active"`
	CreatedAt       time.Time          `json:"created_at"`
	ResolvedAt      *time.Time         `json:"resolved_at,omitempty"`
	ResolutionNotes *string            `json:"resolution_notes,omitempty"`
}

// HoldFromDomain converts a hold for transport.
func HoldFromDomain(h domain.Hold) HoldResponse {
	return HoldResponse{
		ID:              h.ID,
		TicketID:        h.TicketID,
		Type:            h.Type,
		Urgency:         h.Urgency,
		Summary:         h.Summary,
		Notes:           h.Notes,
		Active:          h.Active,
		CreatedAt:       h.CreatedAt,
		ResolvedAt:      h.ResolvedAt,
		ResolutionNotes: h.ResolutionNotes,
	}
}
