package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// AssignRequest proposes a schedule slot for a ticket.
type AssignRequest struct {
	TechnicianID    string    `json:"technician_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Override        bool      `json:"override"`
}

// CommitmentResponse is one scheduled block on a technician's day.
type CommitmentResponse struct {
	TicketID        string    `json:"ticket_id"`
	TicketNumber    string    `json:"ticket_number"`
	Title           string    `json:"title"`
	CustomerName    string    `json:"customer_name"`
	TechnicianID    string    `json:"technician_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// ConflictCheckResponse reports an advisory conflict check.
type ConflictCheckResponse struct {
	HasConflict bool                 `json:"has_conflict"`
	Conflicts   []CommitmentResponse `json:"conflicts"`
}

// AssignmentResponse reports an assignment attempt. Conflict is set
// only when the advisory check blocked the commit.
type AssignmentResponse struct {
	Committed bool                   `json:"committed"`
	Ticket    *TicketSummary         `json:"ticket,omitempty"`
	Conflict  *ConflictCheckResponse `json:"conflict,omitempty"`
}

// DailyConflictMapResponse flags conflicting tickets for one day.
type DailyConflictMapResponse struct {
	Date  string          `json:"date"`
	Flags map[string]bool `json:"flags"`
}

// TechnicianDayConflictsResponse maps each ticket to the tickets it
// collides with on one technician's day.
type TechnicianDayConflictsResponse struct {
	Date         string              `json:"date"`
	TechnicianID string              `json:"technician_id"`
	Conflicts    map[string][]string `json:"conflicts"`
}

// RangeConflictCountsResponse tallies conflicting tickets per day.
type RangeConflictCountsResponse struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Counts map[string]int `json:"counts"`
}

// CommitmentFromDomain converts a commitment for transport.
func CommitmentFromDomain(c domain.Commitment) CommitmentResponse {
	return CommitmentResponse{
		TicketID:        c.TicketID,
		TicketNumber:    c.TicketNumber,
		Title:           c.Title,
		CustomerName:    c.CustomerName,
		TechnicianID:    c.TechnicianID,
		Start:           c.Start,
		End:             c.End(),
		DurationMinutes: c.DurationMinutes,
	}
}

// ConflictCheckFromDomain converts a conflict result for transport.
func ConflictCheckFromDomain(result *domain.ConflictResult) *ConflictCheckResponse {
	if result == nil {
		return nil
	}
	resp := &ConflictCheckResponse{
		HasConflict: result.HasConflict,
		Conflicts:   make([]CommitmentResponse, 0, len(result.Conflicts)),
	}
	for _, c := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, CommitmentFromDomain(c))
	}
	return resp
}
