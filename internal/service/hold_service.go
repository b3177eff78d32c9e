package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// HoldService governs the pause/resume lifecycle of billable work.
// Each transition is delegated to the hold store as one transaction,
// so the stopped timer, the hold record, and the ticket flag never
// drift apart.
type HoldService struct {
	tickets    repository.TicketRepository
	holds      repository.HoldStore
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// HoldDependencies bundles collaborators for the hold service.
type HoldDependencies struct {
	TicketRepo  repository.TicketRepository
	HoldStore   repository.HoldStore
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Now         func() time.Time
}

// NewHoldService constructs the service.
func NewHoldService(deps HoldDependencies) *HoldService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &HoldService{
		tickets:    deps.TicketRepo,
		holds:      deps.HoldStore,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// PartsLineInput is one requested part.
type PartsLineInput struct {
	PartID          string
	Quantity        int
	Notes           string
	PreferredSource *string
}

// PartsHoldInput describes a hold-for-parts request.
type PartsHoldInput struct {
	Urgency      domain.HoldUrgency
	Summary      string
	Notes        string
	Items        []PartsLineInput
	DispatcherID *string
}

// IssueReportInput describes a report-issue request.
type IssueReportInput struct {
	Category     domain.IssueCategory
	Severity     domain.IssueSeverity
	Description  string
	Summary      string
	Metadata     map[string]any
	DispatcherID *string
}

// HoldForParts pauses the ticket pending parts. Stopping the ticket's
// running timer, creating the hold record and flagging the ticket all
// commit in one transaction. The ticket keeps its status label but
// drops out of conflict checking and start-work eligibility.
func (s *HoldService) HoldForParts(ctx context.Context, ticketID string, input PartsHoldInput) (*repository.HoldReceipt, error) {
	if !domain.ValidHoldUrgency(input.Urgency) {
		return nil, apperrors.NewValidationError("invalid urgency", map[string]any{"urgency": input.Urgency})
	}
	if len(input.Items) == 0 {
		return nil, apperrors.NewValidationError("at least one part is required", nil)
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.PartID) == "" {
			return nil, apperrors.NewValidationError("part id required", map[string]any{"item": i})
		}
		if item.Quantity < 1 {
			return nil, apperrors.NewValidationError("quantity must be at least 1", map[string]any{"item": i, "part_id": item.PartID})
		}
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.HoldActive {
		return nil, alreadyOnHold(ticket)
	}

	items := make([]domain.PartsRequestItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, domain.PartsRequestItem{
			PartID:          strings.TrimSpace(item.PartID),
			Quantity:        item.Quantity,
			Notes:           item.Notes,
			PreferredSource: item.PreferredSource,
		})
	}

	receipt, err := s.holds.PlacePartsHold(ctx, repository.PartsHoldParams{
		TicketID: ticket.ID,
		Urgency:  input.Urgency,
		Summary:  strings.TrimSpace(input.Summary),
		Notes:    strings.TrimSpace(input.Notes),
		Items:    items,
		Now:      s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyOnHold) {
			return nil, alreadyOnHold(ticket)
		}
		return nil, apperrors.NewUnavailable("hold could not be placed", err)
	}

	s.recordHoldChange(ctx, input.DispatcherID, ticket, domain.ChangeTypeHold, map[string]any{
		"hold_id":   receipt.HoldID,
		"hold_type": domain.HoldTypeParts,
		"urgency":   input.Urgency,
	})
	s.publish(ctx, events.EventTicketHeld, ticket.ID, input.DispatcherID, events.TicketHeldPayload{
		HoldID:       receipt.HoldID,
		HoldType:     domain.HoldTypeParts,
		Summary:      input.Summary,
		TimerStopped: receipt.TimerStopped,
	})
	return receipt, nil
}

// ReportIssue pauses the ticket pending issue resolution. Description
// is a hard precondition, not advisory.
func (s *HoldService) ReportIssue(ctx context.Context, ticketID string, input IssueReportInput) (*repository.HoldReceipt, error) {
	if !domain.ValidIssueCategory(input.Category) {
		return nil, apperrors.NewValidationError("invalid issue category", map[string]any{"category": input.Category})
	}
	if !domain.ValidIssueSeverity(input.Severity) {
		return nil, apperrors.NewValidationError("invalid issue severity", map[string]any{"severity": input.Severity})
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.HoldActive {
		return nil, alreadyOnHold(ticket)
	}

	receipt, err := s.holds.PlaceIssueHold(ctx, repository.IssueHoldParams{
		TicketID:    ticket.ID,
		Category:    input.Category,
		Severity:    input.Severity,
		Description: strings.TrimSpace(input.Description),
		Summary:     strings.TrimSpace(input.Summary),
		Metadata:    input.Metadata,
		Now:         s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyOnHold) {
			return nil, alreadyOnHold(ticket)
		}
		return nil, apperrors.NewUnavailable("issue report could not be placed", err)
	}

	s.recordHoldChange(ctx, input.DispatcherID, ticket, domain.ChangeTypeHold, map[string]any{
		"hold_id":   receipt.HoldID,
		"hold_type": domain.HoldTypeIssue,
		"category":  input.Category,
		"severity":  input.Severity,
	})
	s.publish(ctx, events.EventTicketHeld, ticket.ID, input.DispatcherID, events.TicketHeldPayload{
		HoldID:       receipt.HoldID,
		HoldType:     domain.HoldTypeIssue,
		Summary:      input.Summary,
		TimerStopped: receipt.TimerStopped,
	})
	return receipt, nil
}

// Resume clears the active hold and retains it as a resolved audit
// record. Resume does not restart the timer; starting work again is a
// separate explicit action.
func (s *HoldService) Resume(ctx context.Context, ticketID string, resolutionNotes *string, dispatcherID *string) (*domain.Hold, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.HoldActive {
		return nil, apperrors.NewConflict("ticket is not on hold", map[string]any{
			"ticket_number": ticket.TicketNumber,
		})
	}

	hold, err := s.holds.ResolveHold(ctx, ticket.ID, resolutionNotes, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotOnHold) {
			return nil, apperrors.NewConflict("ticket is not on hold", map[string]any{
				"ticket_number": ticket.TicketNumber,
			})
		}
		return nil, apperrors.NewUnavailable("hold could not be resolved", err)
	}

	s.recordHoldChange(ctx, dispatcherID, ticket, domain.ChangeTypeResume, map[string]any{
		"hold_id":   hold.ID,
		"hold_type": hold.Type,
	})
	s.publish(ctx, events.EventTicketResumed, ticket.ID, dispatcherID, events.TicketResumedPayload{
		HoldID:          hold.ID,
		HoldType:        hold.Type,
		ResolutionNotes: resolutionNotes,
	})
	return hold, nil
}

// ListHolds returns the ticket's full hold history, resolved holds
// included.
func (s *HoldService) ListHolds(ctx context.Context, ticketID string) ([]domain.Hold, error) {
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	holds, err := s.holds.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return holds, nil
}

func (s *HoldService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func alreadyOnHold(ticket *domain.Ticket) error {
	return apperrors.NewConflict("ticket is already on hold", map[string]any{
		"ticket_number": ticket.TicketNumber,
	})
}

func (s *HoldService) recordHoldChange(ctx context.Context, dispatcherID *string, ticket *domain.Ticket, changeType domain.TicketChangeType, newValue map[string]any) {
	if s.history == nil {
		return
	}
	_ = s.history.Create(ctx, &domain.TicketHistory{
		TicketID:    ticket.ID,
		ChangedByID: dispatcherID,
		ChangeType:  changeType,
		OldValue: map[string]any{
			"hold_active": ticket.HoldActive,
		},
		NewValue: newValue,
	})
}

func (s *HoldService) publish(ctx context.Context, eventType events.EventType, ticketID string, dispatcherID *string, payload any) {
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
