package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

type assignmentFixture struct {
	svc     *AssignmentService
	tickets *fakeTicketRepo
	techs   *fakeTechnicianRepo
	checker *fakeConflictChecker
	history *fakeHistoryRepo
	events  *fakeDispatcher
	ticket  *domain.Ticket
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	techs := newFakeTechnicianRepo(
		&domain.Technician{ID: "tech-1", Name: "Ana", Active: true},
		&domain.Technician{ID: "tech-2", Name: "Ben", Active: false},
	)
	checker := &fakeConflictChecker{}
	history := &fakeHistoryRepo{}
	dispatcher := &fakeDispatcher{}

	ticket := tickets.add(&domain.Ticket{
		TicketNumber: "FST-11AA22BB",
		CustomerName: "Harbor Bakery",
		Title:        "oven install",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
	})

	svc := NewAssignmentService(AssignmentDependencies{
		TicketRepo:     tickets,
		TechnicianRepo: techs,
		HistoryRepo:    history,
		Conflicts:      checker,
		Dispatcher:     dispatcher,
		Schedule:       config.ScheduleConfig{DefaultDurationMinutes: 120},
		Now:            func() time.Time { return day(8, 0) },
	})
	return &assignmentFixture{svc: svc, tickets: tickets, techs: techs, checker: checker, history: history, events: dispatcher, ticket: ticket}
}

func TestAssignCommitsWhenClean(t *testing.T) {
	fix := newAssignmentFixture(t)

	result, err := fix.svc.AssignTechnician(context.Background(), fix.ticket.ID, AssignmentInput{
		TechnicianID: "tech-1",
		Start:        day(9, 0),
	})
	if err != nil {
		t.Fatalf("AssignTechnician: %v", err)
	}
	if !result.Committed {
		t.Fatal("clean assignment did not commit")
	}

	stored := fix.tickets.tickets[fix.ticket.ID]
	if stored.TechnicianID == nil || *stored.TechnicianID != "tech-1" {
		t.Fatalf("technician = %v, want tech-1", stored.TechnicianID)
	}
	if stored.Status != domain.TicketStatusScheduled {
		t.Fatalf("status = %q, want SCHEDULED", stored.Status)
	}
	if stored.DurationMinutes != 120 {
		t.Fatalf("duration = %d, want the 120 minute default", stored.DurationMinutes)
	}
	if got := fix.history.lastChangeType(); got != domain.ChangeTypeAssignment {
		t.Fatalf("history change type = %q", got)
	}
	if got := fix.events.lastEventType(); got != events.EventTicketAssigned {
		t.Fatalf("event type = %q", got)
	}
	if len(fix.checker.invalidated) != 1 || fix.checker.invalidated[0] != "2025-03-10" {
		t.Fatalf("invalidated days = %v, want [2025-03-10]", fix.checker.invalidated)
	}
}

func TestAssignBlocksOnConflictWithoutCommit(t *testing.T) {
	fix := newAssignmentFixture(t)
	fix.checker.result = &domain.ConflictResult{
		HasConflict: true,
		Conflicts:   []domain.Commitment{commitment("t9", "tech-1", day(9, 0), 120)},
	}

	result, err := fix.svc.AssignTechnician(context.Background(), fix.ticket.ID, AssignmentInput{
		TechnicianID: "tech-1",
		Start:        day(9, 30),
	})
	if err != nil {
		t.Fatalf("AssignTechnician: %v", err)
	}
	if result.Committed {
		t.Fatal("conflicting assignment committed")
	}
	if result.Conflict == nil || len(result.Conflict.Conflicts) != 1 {
		t.Fatalf("conflict payload = %+v", result.Conflict)
	}

	stored := fix.tickets.tickets[fix.ticket.ID]
	if stored.TechnicianID != nil || stored.Status != domain.TicketStatusOpen {
		t.Fatalf("blocked assignment mutated ticket: %+v", stored)
	}
	if len(fix.checker.invalidated) != 0 {
		t.Fatalf("blocked assignment invalidated cache: %v", fix.checker.invalidated)
	}
}

func TestAssignOverrideSkipsCheck(t *testing.T) {
	fix := newAssignmentFixture(t)
	fix.checker.result = &domain.ConflictResult{HasConflict: true}

	result, err := fix.svc.AssignTechnician(context.Background(), fix.ticket.ID, AssignmentInput{
		TechnicianID: "tech-1",
		Start:        day(9, 0),
		Override:     true,
	})
	if err != nil {
		t.Fatalf("AssignTechnician: %v", err)
	}
	if !result.Committed {
		t.Fatal("override did not commit")
	}
	if fix.checker.checkCalls != 0 {
		t.Fatalf("override ran the conflict check %d times", fix.checker.checkCalls)
	}

	// The override is recorded for audit.
	last := fix.history.entries[len(fix.history.entries)-1]
	if last.NewValue["override"] != true {
		t.Fatalf("history new value = %v, want override recorded", last.NewValue)
	}
}

func TestAssignDetectorErrorAborts(t *testing.T) {
	fix := newAssignmentFixture(t)
	fix.checker.err = apperrors.NewUnavailable("conflict status could not be determined", errors.New("connection reset"))

	_, err := fix.svc.AssignTechnician(context.Background(), fix.ticket.ID, AssignmentInput{
		TechnicianID: "tech-1",
		Start:        day(9, 0),
	})
	if !apperrors.IsUnavailable(err) {
		t.Fatalf("err = %v, want UNAVAILABLE class", err)
	}
	if fix.tickets.tickets[fix.ticket.ID].TechnicianID != nil {
		t.Fatal("indeterminate check must not commit")
	}
}

func TestAssignInactiveTechnician(t *testing.T) {
	fix := newAssignmentFixture(t)

	_, err := fix.svc.AssignTechnician(context.Background(), fix.ticket.ID, AssignmentInput{
		TechnicianID: "tech-2",
		Start:        day(9, 0),
	})
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("err = %v, want CONFLICT for inactive technician", err)
	}
}

func TestAssignUnknownTechnician(t *testing.T) {
	fix := newAssignmentFixture(t)

	_, err := fix.svc.AssignTechnician(context.Background(), fix.ticket.ID, AssignmentInput{
		TechnicianID: "nobody",
		Start:        day(9, 0),
	})
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "NOT_FOUND" {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestReassignInvalidatesBothDays(t *testing.T) {
	fix := newAssignmentFixture(t)
	ctx := context.Background()

	if _, err := fix.svc.AssignTechnician(ctx, fix.ticket.ID, AssignmentInput{
		TechnicianID: "tech-1",
		Start:        day(9, 0),
	}); err != nil {
		t.Fatalf("first assignment: %v", err)
	}
	fix.checker.invalidated = nil

	if _, err := fix.svc.AssignTechnician(ctx, fix.ticket.ID, AssignmentInput{
		TechnicianID: "tech-1",
		Start:        day(9, 0).AddDate(0, 0, 2),
	}); err != nil {
		t.Fatalf("reassignment: %v", err)
	}

	want := []string{"2025-03-10", "2025-03-12"}
	if len(fix.checker.invalidated) != 2 || fix.checker.invalidated[0] != want[0] || fix.checker.invalidated[1] != want[1] {
		t.Fatalf("invalidated days = %v, want %v", fix.checker.invalidated, want)
	}
}

func TestUnassignRevertsToOpen(t *testing.T) {
	fix := newAssignmentFixture(t)
	ctx := context.Background()

	if _, err := fix.svc.AssignTechnician(ctx, fix.ticket.ID, AssignmentInput{
		TechnicianID: "tech-1",
		Start:        day(9, 0),
	}); err != nil {
		t.Fatalf("assignment: %v", err)
	}
	fix.checker.invalidated = nil

	ticket, err := fix.svc.Unassign(ctx, fix.ticket.ID, nil)
	if err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if ticket.TechnicianID != nil || ticket.ScheduledAt != nil {
		t.Fatalf("ticket still assigned: %+v", ticket)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want OPEN", ticket.Status)
	}
	if len(fix.checker.invalidated) != 1 || fix.checker.invalidated[0] != "2025-03-10" {
		t.Fatalf("invalidated days = %v", fix.checker.invalidated)
	}
}

func TestUnassignWithoutAssignment(t *testing.T) {
	fix := newAssignmentFixture(t)

	_, err := fix.svc.Unassign(context.Background(), fix.ticket.ID, nil)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}
