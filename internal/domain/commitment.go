package domain

import "time"

// Commitment is a technician's scheduled unit of work, materialized
// from an active ticket. Commitments are never stored; they exist only
// as long as the source ticket is scheduled, active, and not on hold.
type Commitment struct {
	TicketID        string
	TicketNumber    string
	Title           string
	CustomerName    string
	TechnicianID    string
	Start           time.Time
	DurationMinutes int
}

// End returns the half-open end of the commitment window.
func (c Commitment) End() time.Time {
	minutes := c.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	return c.Start.Add(time.Duration(minutes) * time.Minute)
}

// ConflictResult reports whether a proposed window collides with
// existing commitments. Ephemeral; computed on demand.
type ConflictResult struct {
	HasConflict bool
	Conflicts   []Commitment
}
