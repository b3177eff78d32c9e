package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// statusTransitions encodes the ticket lifecycle. Completion and
// cancellation are terminal.
var statusTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusScheduled, domain.TicketStatusCancelled},
	domain.TicketStatusScheduled:  {domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusCancelled},
	domain.TicketStatusInProgress: {domain.TicketStatusCompleted, domain.TicketStatusCancelled},
	domain.TicketStatusCompleted:  {},
	domain.TicketStatusCancelled:  {},
}

func canTransition(from, to domain.TicketStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TicketService owns the ticket lifecycle outside of scheduling:
// creation, status transitions, priority changes, and the aggregated
// detail view.
type TicketService struct {
	tickets    repository.TicketRepository
	holds      repository.HoldStore
	timeLogs   repository.TimeLogStore
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	HoldStore    repository.HoldStore
	TimeLogStore repository.TimeLogStore
	HistoryRepo  repository.TicketHistoryRepository
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		holds:      deps.HoldStore,
		timeLogs:   deps.TimeLogStore,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// CreateTicketInput carries the fields a dispatcher supplies at intake.
type CreateTicketInput struct {
	CustomerName string
	Title        string
	Description  string
	Priority     domain.TicketPriority
	DispatcherID *string
}

// TicketDetail aggregates everything the detail screen shows.
type TicketDetail struct {
	Ticket     *domain.Ticket
	ActiveHold *domain.Hold
	Holds      []domain.Hold
	TimeLogs   []domain.TimeLog
	History    []domain.TicketHistory
}

var validPriorities = []domain.TicketPriority{
	domain.TicketPriorityLow,
	domain.TicketPriorityMedium,
	domain.TicketPriorityHigh,
	domain.TicketPriorityUrgent,
}

func validPriority(p domain.TicketPriority) bool {
	for _, candidate := range validPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Create opens a new ticket in OPEN status with a generated FST number.
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, apperrors.NewValidationError("customer name is required", map[string]any{"field": "customer_name"})
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !validPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	ticket := &domain.Ticket{
		TicketNumber:    generateTicketNumber(),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Status:          domain.TicketStatusOpen,
		Priority:        priority,
		DurationMinutes: domain.DefaultDurationMinutes,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketCreated, ticket.ID, input.DispatcherID, events.TicketCreatedPayload{
		TicketNumber: ticket.TicketNumber,
		CustomerName: ticket.CustomerName,
		Priority:     ticket.Priority,
		Title:        ticket.Title,
	})
	return ticket, nil
}

// Get returns the aggregated detail view for one ticket.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	detail := &TicketDetail{Ticket: ticket}
	if s.holds != nil {
		if detail.ActiveHold, err = s.holds.GetActiveHold(ctx, ticket.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
		if detail.Holds, err = s.holds.ListByTicket(ctx, ticket.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if s.timeLogs != nil {
		if detail.TimeLogs, err = s.timeLogs.ListByTicket(ctx, ticket.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if s.history != nil {
		if detail.History, err = s.history.ListByTicket(ctx, ticket.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return detail, nil
}

// GetByNumber resolves a ticket by its human-facing number.
func (s *TicketService) GetByNumber(ctx context.Context, ticketNumber string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": ticketNumber})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// List returns tickets matching the filter.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ChangeStatus moves the ticket through the lifecycle. Completing a
// ticket while a hold is active is rejected with the ticket number in
// the error details so the dispatcher knows which hold to resolve.
func (s *TicketService) ChangeStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, comment string, dispatcherID *string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !canTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("status transition not allowed", map[string]any{
			"ticket_number": ticket.TicketNumber,
			"from":          ticket.Status,
			"to":            newStatus,
		})
	}
	if newStatus == domain.TicketStatusCompleted && ticket.HoldActive {
		return nil, apperrors.NewConflict("cannot complete a ticket on hold", map[string]any{
			"ticket_number": ticket.TicketNumber,
		})
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus == domain.TicketStatusCompleted {
		completedAt := s.now()
		ticket.CompletedAt = &completedAt
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.history != nil {
		_ = s.history.Create(ctx, &domain.TicketHistory{
			TicketID:    ticket.ID,
			ChangedByID: dispatcherID,
			ChangeType:  domain.ChangeTypeStatus,
			OldValue:    map[string]any{"status": oldStatus},
			NewValue:    map[string]any{"status": newStatus, "comment": comment},
		})
	}
	s.publish(ctx, events.EventTicketStatusChanged, ticket.ID, dispatcherID, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Comment:   comment,
	})
	return ticket, nil
}

// UpdatePriority rewrites the dispatch priority of an active ticket.
func (s *TicketService) UpdatePriority(ctx context.Context, ticketID string, priority domain.TicketPriority, dispatcherID *string) (*domain.Ticket, error) {
	if !validPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.IsActiveStatus(ticket.Status) {
		return nil, apperrors.NewConflict("priority cannot change on a closed ticket", map[string]any{
			"ticket_number": ticket.TicketNumber,
			"status":        ticket.Status,
		})
	}
	if ticket.Priority == priority {
		return ticket, nil
	}

	oldPriority := ticket.Priority
	ticket.Priority = priority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.history != nil {
		_ = s.history.Create(ctx, &domain.TicketHistory{
			TicketID:    ticket.ID,
			ChangedByID: dispatcherID,
			ChangeType:  domain.ChangeTypePriority,
			OldValue:    map[string]any{"priority": oldPriority},
			NewValue:    map[string]any{"priority": priority},
		})
	}
	return ticket, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticketID string, dispatcherID *string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		TicketID:     ticketID,
		DispatcherID: dispatcherID,
		Timestamp:    s.now(),
		Payload:      payload,
	})
}

// generateTicketNumber builds a human-facing field-service ticket
// number, e.g. FST-3F2A9C1B.
func generateTicketNumber() string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("FST-%s", fragment)
}
