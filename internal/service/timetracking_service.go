package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// TimeTrackingService starts and stops billable timers. The one-open-
// timer-per-technician rule is enforced by the store; this layer adds
// the eligibility checks that make a timer meaningful.
type TimeTrackingService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	timeLogs    repository.TimeLogStore
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// TimeTrackingDependencies bundles collaborators for the service.
type TimeTrackingDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	TimeLogStore   repository.TimeLogStore
	Dispatcher     events.Dispatcher
	Now            func() time.Time
}

// NewTimeTrackingService constructs the service.
func NewTimeTrackingService(deps TimeTrackingDependencies) *TimeTrackingService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TimeTrackingService{
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
		timeLogs:    deps.TimeLogStore,
		dispatcher:  deps.Dispatcher,
		now:         now,
	}
}

// StartWork opens a timer for the technician on the ticket. The ticket
// must be in an active status, not on hold, and assigned to the
// technician. A technician with a timer already running anywhere gets a
// conflict error naming the blocking ticket.
func (s *TimeTrackingService) StartWork(ctx context.Context, technicianID, ticketID string) (*domain.TimeLog, error) {
	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if !tech.Active {
		return nil, apperrors.NewConflict("technician is inactive", map[string]any{"technician_id": technicianID})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !domain.IsActiveStatus(ticket.Status) {
		return nil, apperrors.NewConflict("ticket is not workable in its current status", map[string]any{
			"ticket_number": ticket.TicketNumber,
			"status":        ticket.Status,
		})
	}
	if ticket.HoldActive {
		return nil, apperrors.NewConflict("ticket is on hold", map[string]any{
			"ticket_number": ticket.TicketNumber,
		})
	}
	if ticket.TechnicianID == nil || *ticket.TechnicianID != technicianID {
		return nil, apperrors.NewConflict("ticket is not assigned to this technician", map[string]any{
			"ticket_number": ticket.TicketNumber,
		})
	}

	log, err := s.timeLogs.StartTimer(ctx, technicianID, ticketID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrTimerRunning) {
			details := map[string]any{"technician_id": technicianID}
			if open, lookupErr := s.timeLogs.GetActiveTimer(ctx, technicianID); lookupErr == nil && open != nil {
				details["open_ticket_id"] = open.TicketID
			}
			return nil, apperrors.NewConflict("technician already has a running timer", details)
		}
		return nil, apperrors.NewUnavailable("timer could not be started", err)
	}

	s.publishTimer(ctx, events.EventWorkStarted, ticket, log)

	if ticket.Status == domain.TicketStatusScheduled {
		ticket.Status = domain.TicketStatusInProgress
		if updateErr := s.tickets.Update(ctx, ticket); updateErr != nil {
			return log, apperrors.MapError(updateErr)
		}
	}
	return log, nil
}

// EndWork closes the technician's open timer on the ticket. Stopping
// without an open timer is a conflict, not a no-op, so double-taps in
// the field surface instead of silently passing.
func (s *TimeTrackingService) EndWork(ctx context.Context, technicianID, ticketID string) (*domain.TimeLog, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	log, err := s.timeLogs.StopTimer(ctx, technicianID, ticketID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenTimer) {
			return nil, apperrors.NewConflict("no open timer for this ticket", map[string]any{
				"ticket_number": ticket.TicketNumber,
				"technician_id": technicianID,
			})
		}
		return nil, apperrors.NewUnavailable("timer could not be stopped", err)
	}

	s.publishTimer(ctx, events.EventWorkStopped, ticket, log)
	return log, nil
}

// ActiveTimer returns the technician's open timer, or nil when idle.
func (s *TimeTrackingService) ActiveTimer(ctx context.Context, technicianID string) (*domain.TimeLog, error) {
	log, err := s.timeLogs.GetActiveTimer(ctx, technicianID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return log, nil
}

// TicketTimeLogs returns all timers recorded against the ticket.
func (s *TimeTrackingService) TicketTimeLogs(ctx context.Context, ticketID string) ([]domain.TimeLog, error) {
	logs, err := s.timeLogs.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return logs, nil
}

func (s *TimeTrackingService) publishTimer(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, log *domain.TimeLog) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Timestamp: s.now(),
		Payload: events.WorkTimerPayload{
			TechnicianID: log.TechnicianID,
			TimeLogID:    log.ID,
		},
	})
}
