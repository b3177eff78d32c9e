package domain

import "time"

// TimeLog records a technician's billable work on a ticket. A
// technician has at most one open (EndedAt == nil) log system-wide.
type TimeLog struct {
	ID           string
	TechnicianID string
	TicketID     string
	StartedAt    time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
}

// Open reports whether the timer is still running.
func (l *TimeLog) Open() bool {
	return l.EndedAt == nil
}
