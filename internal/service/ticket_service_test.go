package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

type ticketFixture struct {
	svc      *TicketService
	tickets  *fakeTicketRepo
	holds    *fakeHoldStore
	timeLogs *fakeTimeLogStore
	history  *fakeHistoryRepo
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	timeLogs := &fakeTimeLogStore{}
	holds := newFakeHoldStore(tickets, timeLogs)
	history := &fakeHistoryRepo{}

	svc := NewTicketService(TicketDependencies{
		TicketRepo:   tickets,
		HoldStore:    holds,
		TimeLogStore: timeLogs,
		HistoryRepo:  history,
		Dispatcher:   &fakeDispatcher{},
		Now:          func() time.Time { return day(16, 0) },
	})
	return &ticketFixture{svc: svc, tickets: tickets, holds: holds, timeLogs: timeLogs, history: history}
}

func TestCreateTicketDefaults(t *testing.T) {
	fix := newTicketFixture(t)

	ticket, err := fix.svc.Create(context.Background(), CreateTicketInput{
		CustomerName: "Hilltop Dental",
		Title:        "sterilizer fault",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(ticket.TicketNumber, "FST-") || len(ticket.TicketNumber) != 12 {
		t.Fatalf("ticket number = %q, want FST- plus 8 chars", ticket.TicketNumber)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want OPEN", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("priority = %q, want MEDIUM default", ticket.Priority)
	}
	if ticket.DurationMinutes != domain.DefaultDurationMinutes {
		t.Fatalf("duration = %d, want %d", ticket.DurationMinutes, domain.DefaultDurationMinutes)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	fix := newTicketFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateTicketInput
	}{
		{"missing customer", CreateTicketInput{Title: "x"}},
		{"missing title", CreateTicketInput{CustomerName: "x"}},
		{"bad priority", CreateTicketInput{CustomerName: "x", Title: "y", Priority: "EXTREME"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fix.svc.Create(ctx, tc.input)
			var domainErr *apperrors.DomainError
			if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
				t.Fatalf("err = %v, want VALIDATION_FAILED", err)
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    domain.TicketStatus
		to      domain.TicketStatus
		allowed bool
	}{
		{domain.TicketStatusOpen, domain.TicketStatusScheduled, true},
		{domain.TicketStatusOpen, domain.TicketStatusCompleted, false},
		{domain.TicketStatusScheduled, domain.TicketStatusInProgress, true},
		{domain.TicketStatusScheduled, domain.TicketStatusOpen, true},
		{domain.TicketStatusInProgress, domain.TicketStatusCompleted, true},
		{domain.TicketStatusInProgress, domain.TicketStatusOpen, false},
		{domain.TicketStatusCompleted, domain.TicketStatusOpen, false},
		{domain.TicketStatusCancelled, domain.TicketStatusOpen, false},
		{domain.TicketStatusOpen, domain.TicketStatusCancelled, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			fix := newTicketFixture(t)
			ticket := fix.tickets.add(&domain.Ticket{Status: tc.from, CustomerName: "c", Title: "t"})

			_, err := fix.svc.ChangeStatus(context.Background(), ticket.ID, tc.to, "", nil)
			if tc.allowed && err != nil {
				t.Fatalf("transition rejected: %v", err)
			}
			if !tc.allowed {
				var domainErr *apperrors.DomainError
				if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
					t.Fatalf("err = %v, want CONFLICT", err)
				}
			}
		})
	}
}

func TestCompletionGuardedByHold(t *testing.T) {
	fix := newTicketFixture(t)
	ctx := context.Background()
	ticket := fix.tickets.add(&domain.Ticket{
		TicketNumber: "FST-GUARD001",
		CustomerName: "c",
		Title:        "t",
		Status:       domain.TicketStatusInProgress,
		HoldActive:   true,
	})

	_, err := fix.svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusCompleted, "", nil)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
	if domainErr.Details["ticket_number"] != "FST-GUARD001" {
		t.Fatalf("details = %v, want ticket number named", domainErr.Details)
	}

	// After the hold clears, completion goes through and stamps the time.
	fix.tickets.tickets[ticket.ID].HoldActive = false
	updated, err := fix.svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusCompleted, "done", nil)
	if err != nil {
		t.Fatalf("completion after resume: %v", err)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(day(16, 0)) {
		t.Fatalf("completed_at = %v, want fixture clock", updated.CompletedAt)
	}
}

func TestUpdatePriority(t *testing.T) {
	fix := newTicketFixture(t)
	ctx := context.Background()
	ticket := fix.tickets.add(&domain.Ticket{
		CustomerName: "c",
		Title:        "t",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityLow,
	})

	updated, err := fix.svc.UpdatePriority(ctx, ticket.ID, domain.TicketPriorityUrgent, nil)
	if err != nil {
		t.Fatalf("UpdatePriority: %v", err)
	}
	if updated.Priority != domain.TicketPriorityUrgent {
		t.Fatalf("priority = %q", updated.Priority)
	}
	if got := fix.history.lastChangeType(); got != domain.ChangeTypePriority {
		t.Fatalf("history change type = %q", got)
	}

	if _, err := fix.svc.UpdatePriority(ctx, ticket.ID, "EXTREME", nil); err == nil {
		t.Fatal("invalid priority accepted")
	}

	closed := fix.tickets.add(&domain.Ticket{CustomerName: "c", Title: "t", Status: domain.TicketStatusCompleted})
	if _, err := fix.svc.UpdatePriority(ctx, closed.ID, domain.TicketPriorityHigh, nil); err == nil {
		t.Fatal("priority change on closed ticket accepted")
	}
}

func TestGetAggregatesDetail(t *testing.T) {
	fix := newTicketFixture(t)
	ctx := context.Background()
	ticket := fix.tickets.add(&domain.Ticket{
		CustomerName: "c",
		Title:        "t",
		Status:       domain.TicketStatusInProgress,
		TechnicianID: strPtr("tech-1"),
	})

	if _, err := fix.timeLogs.StartTimer(ctx, "tech-1", ticket.ID, day(9, 0)); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if _, err := fix.holds.PlacePartsHold(ctx, partsParams(ticket.ID)); err != nil {
		t.Fatalf("PlacePartsHold: %v", err)
	}

	detail, err := fix.svc.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.ActiveHold == nil {
		t.Fatal("active hold missing from detail")
	}
	if len(detail.Holds) != 1 || len(detail.TimeLogs) != 1 {
		t.Fatalf("detail = %d holds, %d logs", len(detail.Holds), len(detail.TimeLogs))
	}
}

func TestGetByNumber(t *testing.T) {
	fix := newTicketFixture(t)
	fix.tickets.add(&domain.Ticket{TicketNumber: "FST-LOOKUP01", CustomerName: "c", Title: "t", Status: domain.TicketStatusOpen})

	ticket, err := fix.svc.GetByNumber(context.Background(), "FST-LOOKUP01")
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if ticket.TicketNumber != "FST-LOOKUP01" {
		t.Fatalf("ticket = %+v", ticket)
	}

	if _, err := fix.svc.GetByNumber(context.Background(), "FST-MISSING0"); err == nil {
		t.Fatal("missing number resolved")
	}
}
