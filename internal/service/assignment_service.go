package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// ConflictChecker is the slice of the conflict service the assignment
// path needs: an advisory check before commit and cache invalidation
// after.
type ConflictChecker interface {
	CheckConflict(ctx context.Context, technicianID string, start, end time.Time, excludeTicketID *string) (*domain.ConflictResult, error)
	InvalidateDays(ctx context.Context, days ...time.Time)
}

// AssignmentService schedules tickets onto technicians. The conflict
// check is advisory: a dispatcher who sees the collision can still
// commit with an explicit override, and the override is recorded in the
// ticket's history.
type AssignmentService struct {
	tickets    repository.TicketRepository
	techs      repository.TechnicianRepository
	history    repository.TicketHistoryRepository
	conflicts  ConflictChecker
	dispatcher events.Dispatcher
	schedule   config.ScheduleConfig
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators for the service.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	HistoryRepo    repository.TicketHistoryRepository
	Conflicts      ConflictChecker
	Dispatcher     events.Dispatcher
	Schedule       config.ScheduleConfig
	Now            func() time.Time
}

// NewAssignmentService constructs the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		techs:      deps.TechnicianRepo,
		history:    deps.HistoryRepo,
		conflicts:  deps.Conflicts,
		dispatcher: deps.Dispatcher,
		schedule:   deps.Schedule,
		now:        now,
	}
}

// AssignmentInput describes a proposed schedule slot.
type AssignmentInput struct {
	TechnicianID    string
	Start           time.Time
	DurationMinutes int
	Override        bool
	DispatcherID    *string
}

// AssignmentResult reports the outcome of an assignment attempt.
// Committed is false only when the advisory check found conflicts and
// no override was given; Conflict then carries the colliding
// commitments so the caller can render them.
type AssignmentResult struct {
	Ticket    *domain.Ticket
	Conflict  *domain.ConflictResult
	Committed bool
}

// AssignTechnician proposes, checks and commits a schedule slot for the ticket.
// Without an override the slot is first checked against the
// technician's same-day commitments; a detected conflict blocks the
// commit and is returned for display. With an override the check is
// skipped entirely. A check failure blocks the commit: the caller must
// not mistake "could not determine" for "no conflict".
func (s *AssignmentService) AssignTechnician(ctx context.Context, ticketID string, input AssignmentInput) (*AssignmentResult, error) {
	if input.Start.IsZero() {
		return nil, apperrors.NewValidationError("scheduled start is required", map[string]any{"field": "scheduled_at"})
	}
	if input.DurationMinutes < 0 {
		return nil, apperrors.NewValidationError("duration must not be negative", map[string]any{"duration_minutes": input.DurationMinutes})
	}
	duration := input.DurationMinutes
	if duration == 0 {
		duration = int(s.schedule.DefaultDuration() / time.Minute)
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.IsActiveStatus(ticket.Status) {
		return nil, apperrors.NewConflict("ticket cannot be scheduled in its current status", map[string]any{
			"ticket_number": ticket.TicketNumber,
			"status":        ticket.Status,
		})
	}

	tech, err := s.techs.GetByID(ctx, input.TechnicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": input.TechnicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if !tech.Active {
		return nil, apperrors.NewConflict("technician is inactive", map[string]any{"technician_id": tech.ID})
	}

	if !input.Override {
		end := input.Start.Add(time.Duration(duration) * time.Minute)
		check, err := s.conflicts.CheckConflict(ctx, input.TechnicianID, input.Start, end, &ticket.ID)
		if err != nil {
			return nil, err
		}
		if check.HasConflict {
			return &AssignmentResult{Ticket: ticket, Conflict: check, Committed: false}, nil
		}
	}

	oldTechnician := ticket.TechnicianID
	oldScheduledAt := ticket.ScheduledAt
	oldStatus := ticket.Status

	ticket.TechnicianID = &tech.ID
	ticket.ScheduledAt = &input.Start
	ticket.DurationMinutes = duration
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusScheduled
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAssignment(ctx, input.DispatcherID, ticket, oldTechnician, oldScheduledAt, oldStatus, input.Override)
	s.publishAssigned(ctx, ticket, input)
	s.invalidateAround(ctx, oldScheduledAt, &input.Start)

	return &AssignmentResult{Ticket: ticket, Committed: true}, nil
}

// Unassign clears the ticket's technician and slot. A scheduled ticket
// that never started reverts to OPEN.
func (s *AssignmentService) Unassign(ctx context.Context, ticketID string, dispatcherID *string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.TechnicianID == nil && ticket.ScheduledAt == nil {
		return nil, apperrors.NewConflict("ticket is not assigned", map[string]any{
			"ticket_number": ticket.TicketNumber,
		})
	}

	oldTechnician := ticket.TechnicianID
	oldScheduledAt := ticket.ScheduledAt
	oldStatus := ticket.Status

	ticket.TechnicianID = nil
	ticket.ScheduledAt = nil
	if ticket.Status == domain.TicketStatusScheduled {
		ticket.Status = domain.TicketStatusOpen
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAssignment(ctx, dispatcherID, ticket, oldTechnician, oldScheduledAt, oldStatus, false)
	s.invalidateAround(ctx, oldScheduledAt, nil)
	return ticket, nil
}

func (s *AssignmentService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *AssignmentService) recordAssignment(ctx context.Context, dispatcherID *string, ticket *domain.Ticket, oldTechnician *string, oldScheduledAt *time.Time, oldStatus domain.TicketStatus, override bool) {
	if s.history == nil {
		return
	}
	oldValue := map[string]any{
		"technician_id": oldTechnician,
		"status":        oldStatus,
	}
	if oldScheduledAt != nil {
		oldValue["scheduled_at"] = oldScheduledAt.Format(time.RFC3339)
	}
	newValue := map[string]any{
		"technician_id": ticket.TechnicianID,
		"status":        ticket.Status,
		"override":      override,
	}
	if ticket.ScheduledAt != nil {
		newValue["scheduled_at"] = ticket.ScheduledAt.Format(time.RFC3339)
	}
	_ = s.history.Create(ctx, &domain.TicketHistory{
		TicketID:    ticket.ID,
		ChangedByID: dispatcherID,
		ChangeType:  domain.ChangeTypeAssignment,
		OldValue:    oldValue,
		NewValue:    newValue,
	})
}

func (s *AssignmentService) publishAssigned(ctx context.Context, ticket *domain.Ticket, input AssignmentInput) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:           uuid.NewString(),
		Type:         events.EventTicketAssigned,
		TicketID:     ticket.ID,
		DispatcherID: input.DispatcherID,
		Timestamp:    s.now(),
		Payload: events.TicketAssignedPayload{
			TechnicianID: input.TechnicianID,
			ScheduledAt:  input.Start,
			DurationMin:  ticket.DurationMinutes,
			Override:     input.Override,
		},
	})
}

// invalidateAround drops cached conflict maps for the days touched by a
// schedule change. Moving a ticket across days dirties both the old day
// and the new one.
func (s *AssignmentService) invalidateAround(ctx context.Context, oldScheduledAt, newScheduledAt *time.Time) {
	if s.conflicts == nil {
		return
	}
	var days []time.Time
	if oldScheduledAt != nil {
		days = append(days, *oldScheduledAt)
	}
	if newScheduledAt != nil {
		if oldScheduledAt == nil || oldScheduledAt.Format(DateKeyFormat) != newScheduledAt.Format(DateKeyFormat) {
			days = append(days, *newScheduledAt)
		}
	}
	s.conflicts.InvalidateDays(ctx, days...)
}
