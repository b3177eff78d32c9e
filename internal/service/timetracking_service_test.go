package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

type timerFixture struct {
	svc      *TimeTrackingService
	tickets  *fakeTicketRepo
	timeLogs *fakeTimeLogStore
	ticket   *domain.Ticket
}

func newTimerFixture(t *testing.T) *timerFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	techs := newFakeTechnicianRepo(
		&domain.Technician{ID: "tech-1", Name: "Ana", Active: true},
		&domain.Technician{ID: "tech-2", Name: "Ben", Active: false},
	)
	timeLogs := &fakeTimeLogStore{}

	ticket := tickets.add(&domain.Ticket{
		TicketNumber: "FST-77EE88FF",
		CustomerName: "Dockside Freight",
		Title:        "conveyor motor",
		Status:       domain.TicketStatusScheduled,
		Priority:     domain.TicketPriorityHigh,
		TechnicianID: strPtr("tech-1"),
		ScheduledAt:  timePtr(day(9, 0)),
	})

	svc := NewTimeTrackingService(TimeTrackingDependencies{
		TicketRepo:     tickets,
		TechnicianRepo: techs,
		TimeLogStore:   timeLogs,
		Dispatcher:     &fakeDispatcher{},
		Now:            func() time.Time { return day(9, 5) },
	})
	return &timerFixture{svc: svc, tickets: tickets, timeLogs: timeLogs, ticket: ticket}
}

func TestStartWorkOpensTimerAndMovesToInProgress(t *testing.T) {
	fix := newTimerFixture(t)

	log, err := fix.svc.StartWork(context.Background(), "tech-1", fix.ticket.ID)
	if err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	if log.EndedAt != nil {
		t.Fatal("new timer already closed")
	}
	if fix.tickets.tickets[fix.ticket.ID].Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %q, want IN_PROGRESS", fix.tickets.tickets[fix.ticket.ID].Status)
	}
}

func TestStartWorkGuards(t *testing.T) {
	cases := []struct {
		name     string
		prep     func(*timerFixture)
		techID   string
		wantCode string
	}{
		{
			name:     "inactive technician",
			prep:     func(*timerFixture) {},
			techID:   "tech-2",
			wantCode: "CONFLICT",
		},
		{
			name:     "unknown technician",
			prep:     func(*timerFixture) {},
			techID:   "nobody",
			wantCode: "NOT_FOUND",
		},
		{
			name: "held ticket",
			prep: func(fix *timerFixture) {
				fix.tickets.tickets[fix.ticket.ID].HoldActive = true
			},
			techID:   "tech-1",
			wantCode: "CONFLICT",
		},
		{
			name: "completed ticket",
			prep: func(fix *timerFixture) {
				fix.tickets.tickets[fix.ticket.ID].Status = domain.TicketStatusCompleted
			},
			techID:   "tech-1",
			wantCode: "CONFLICT",
		},
		{
			name: "assigned to someone else",
			prep: func(fix *timerFixture) {
				fix.tickets.tickets[fix.ticket.ID].TechnicianID = strPtr("tech-9")
			},
			techID:   "tech-1",
			wantCode: "CONFLICT",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fix := newTimerFixture(t)
			tc.prep(fix)

			_, err := fix.svc.StartWork(context.Background(), tc.techID, fix.ticket.ID)
			var domainErr *apperrors.DomainError
			if !errors.As(err, &domainErr) || domainErr.Code != tc.wantCode {
				t.Fatalf("err = %v, want code %s", err, tc.wantCode)
			}
			if len(fix.timeLogs.logs) != 0 {
				t.Fatal("guarded start still opened a timer")
			}
		})
	}
}

func TestStartWorkSecondTimerBlocked(t *testing.T) {
	fix := newTimerFixture(t)
	ctx := context.Background()

	other := fix.tickets.add(&domain.Ticket{
		TicketNumber: "FST-OTHER001",
		CustomerName: "Dockside Freight",
		Title:        "second job",
		Status:       domain.TicketStatusScheduled,
		TechnicianID: strPtr("tech-1"),
	})

	if _, err := fix.svc.StartWork(ctx, "tech-1", fix.ticket.ID); err != nil {
		t.Fatalf("first StartWork: %v", err)
	}

	_, err := fix.svc.StartWork(ctx, "tech-1", other.ID)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
	if domainErr.Details["open_ticket_id"] != fix.ticket.ID {
		t.Fatalf("details = %v, want blocking ticket named", domainErr.Details)
	}
}

func TestEndWorkClosesTimer(t *testing.T) {
	fix := newTimerFixture(t)
	ctx := context.Background()

	if _, err := fix.svc.StartWork(ctx, "tech-1", fix.ticket.ID); err != nil {
		t.Fatalf("StartWork: %v", err)
	}

	log, err := fix.svc.EndWork(ctx, "tech-1", fix.ticket.ID)
	if err != nil {
		t.Fatalf("EndWork: %v", err)
	}
	if log.EndedAt == nil {
		t.Fatal("timer not closed")
	}

	active, err := fix.svc.ActiveTimer(ctx, "tech-1")
	if err != nil {
		t.Fatalf("ActiveTimer: %v", err)
	}
	if active != nil {
		t.Fatalf("active timer = %+v, want none", active)
	}
}

func TestEndWorkWithoutOpenTimer(t *testing.T) {
	fix := newTimerFixture(t)

	_, err := fix.svc.EndWork(context.Background(), "tech-1", fix.ticket.ID)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}
