package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
)

// The fakes below keep state in maps and slices and enforce the same
// sentinel-error contracts as the pgx-backed stores.

type fakeTicketRepo struct {
	tickets       map[string]*domain.Ticket
	commitments   []domain.Commitment
	nextID        int
	commitmentErr error
	getErr        error
	updateErr     error
	updateCalls   int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) add(ticket *domain.Ticket) *domain.Ticket {
	if ticket.ID == "" {
		r.nextID++
		ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	}
	if ticket.TicketNumber == "" {
		ticket.TicketNumber = fmt.Sprintf("FST-%08d", r.nextID)
	}
	r.tickets[ticket.ID] = ticket
	return ticket
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.TicketNumber == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.TechnicianID != nil && (ticket.TechnicianID == nil || *ticket.TechnicianID != *filter.TechnicianID) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) ListCommitments(_ context.Context, filter repository.CommitmentFilter) ([]domain.Commitment, error) {
	if r.commitmentErr != nil {
		return nil, r.commitmentErr
	}
	var result []domain.Commitment
	for _, c := range r.commitments {
		if filter.TechnicianID != nil && c.TechnicianID != *filter.TechnicianID {
			continue
		}
		if filter.ExcludeTicketID != nil && c.TicketID == *filter.ExcludeTicketID {
			continue
		}
		if c.Start.Before(filter.From) || !c.Start.Before(filter.To) {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

type fakeTechnicianRepo struct {
	technicians map[string]*domain.Technician
	getErr      error
}

func newFakeTechnicianRepo(techs ...*domain.Technician) *fakeTechnicianRepo {
	r := &fakeTechnicianRepo{technicians: map[string]*domain.Technician{}}
	for _, t := range techs {
		r.technicians[t.ID] = t
	}
	return r
}

func (r *fakeTechnicianRepo) Create(_ context.Context, technician *domain.Technician) error {
	r.technicians[technician.ID] = technician
	return nil
}

func (r *fakeTechnicianRepo) Update(_ context.Context, technician *domain.Technician) error {
	r.technicians[technician.ID] = technician
	return nil
}

func (r *fakeTechnicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	technician, ok := r.technicians[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *technician
	return &copied, nil
}

func (r *fakeTechnicianRepo) List(_ context.Context, _ repository.TechnicianFilter) ([]domain.Technician, error) {
	var result []domain.Technician
	for _, t := range r.technicians {
		result = append(result, *t)
	}
	return result, nil
}

type fakeHistoryRepo struct {
	entries []*domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.entries = append(r.entries, history)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, *entry)
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) lastChangeType() domain.TicketChangeType {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].ChangeType
}

type fakeTimeLogStore struct {
	logs   []*domain.TimeLog
	nextID int
}

func (s *fakeTimeLogStore) StartTimer(_ context.Context, technicianID, ticketID string, startedAt time.Time) (*domain.TimeLog, error) {
	for _, log := range s.logs {
		if log.TechnicianID == technicianID && log.EndedAt == nil {
			return nil, repository.ErrTimerRunning
		}
	}
	s.nextID++
	log := &domain.TimeLog{
		ID:           fmt.Sprintf("log-%d", s.nextID),
		TechnicianID: technicianID,
		TicketID:     ticketID,
		StartedAt:    startedAt,
		CreatedAt:    startedAt,
	}
	s.logs = append(s.logs, log)
	copied := *log
	return &copied, nil
}

func (s *fakeTimeLogStore) StopTimer(_ context.Context, technicianID, ticketID string, endedAt time.Time) (*domain.TimeLog, error) {
	for _, log := range s.logs {
		if log.TechnicianID == technicianID && log.TicketID == ticketID && log.EndedAt == nil {
			ended := endedAt
			log.EndedAt = &ended
			copied := *log
			return &copied, nil
		}
	}
	return nil, repository.ErrNoOpenTimer
}

func (s *fakeTimeLogStore) GetActiveTimer(_ context.Context, technicianID string) (*domain.TimeLog, error) {
	for _, log := range s.logs {
		if log.TechnicianID == technicianID && log.EndedAt == nil {
			copied := *log
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeTimeLogStore) ListByTicket(_ context.Context, ticketID string) ([]domain.TimeLog, error) {
	var result []domain.TimeLog
	for _, log := range s.logs {
		if log.TicketID == ticketID {
			result = append(result, *log)
		}
	}
	return result, nil
}

func (s *fakeTimeLogStore) openTimerForTicket(ticketID string) *domain.TimeLog {
	for _, log := range s.logs {
		if log.TicketID == ticketID && log.EndedAt == nil {
			return log
		}
	}
	return nil
}

// fakeHoldStore mirrors the transactional store: every Place/Resolve
// either applies all of its effects or none of them. placeErr injects a
// failure before any state is touched, standing in for a transaction
// rollback.
type fakeHoldStore struct {
	tickets  *fakeTicketRepo
	timeLogs *fakeTimeLogStore
	holds    []*domain.Hold
	nextID   int
	placeErr error
}

func newFakeHoldStore(tickets *fakeTicketRepo, timeLogs *fakeTimeLogStore) *fakeHoldStore {
	return &fakeHoldStore{tickets: tickets, timeLogs: timeLogs}
}

func (s *fakeHoldStore) place(ticketID string, holdType domain.HoldType, urgency domain.HoldUrgency, summary, notes string, now time.Time) (*repository.HoldReceipt, error) {
	ticket, ok := s.tickets.tickets[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if ticket.HoldActive {
		return nil, repository.ErrAlreadyOnHold
	}
	if s.placeErr != nil {
		return nil, s.placeErr
	}

	timerStopped := false
	if s.timeLogs != nil {
		if open := s.timeLogs.openTimerForTicket(ticketID); open != nil {
			ended := now
			open.EndedAt = &ended
			timerStopped = true
		}
	}
	ticket.HoldActive = true

	s.nextID++
	hold := &domain.Hold{
		ID:        fmt.Sprintf("hold-%d", s.nextID),
		TicketID:  ticketID,
		Type:      holdType,
		Urgency:   urgency,
		Summary:   summary,
		Notes:     notes,
		Active:    true,
		CreatedAt: now,
	}
	s.holds = append(s.holds, hold)
	return &repository.HoldReceipt{
		HoldID:       hold.ID,
		DetailID:     fmt.Sprintf("detail-%d", s.nextID),
		TimerStopped: timerStopped,
	}, nil
}

func (s *fakeHoldStore) PlacePartsHold(_ context.Context, params repository.PartsHoldParams) (*repository.HoldReceipt, error) {
	return s.place(params.TicketID, domain.HoldTypeParts, params.Urgency, params.Summary, params.Notes, params.Now)
}

func (s *fakeHoldStore) PlaceIssueHold(_ context.Context, params repository.IssueHoldParams) (*repository.HoldReceipt, error) {
	return s.place(params.TicketID, domain.HoldTypeIssue, domain.HoldUrgency(params.Severity), params.Summary, params.Description, params.Now)
}

func (s *fakeHoldStore) ResolveHold(_ context.Context, ticketID string, resolutionNotes *string, now time.Time) (*domain.Hold, error) {
	ticket, ok := s.tickets.tickets[ticketID]
	if !ok || !ticket.HoldActive {
		return nil, repository.ErrNotOnHold
	}
	for _, hold := range s.holds {
		if hold.TicketID == ticketID && hold.Active {
			ticket.HoldActive = false
			hold.Active = false
			resolved := now
			hold.ResolvedAt = &resolved
			hold.ResolutionNotes = resolutionNotes
			copied := *hold
			return &copied, nil
		}
	}
	return nil, repository.ErrNotOnHold
}

func (s *fakeHoldStore) GetActiveHold(_ context.Context, ticketID string) (*domain.Hold, error) {
	for _, hold := range s.holds {
		if hold.TicketID == ticketID && hold.Active {
			copied := *hold
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeHoldStore) ListByTicket(_ context.Context, ticketID string) ([]domain.Hold, error) {
	var result []domain.Hold
	for _, hold := range s.holds {
		if hold.TicketID == ticketID {
			result = append(result, *hold)
		}
	}
	return result, nil
}

type fakeDispatcher struct {
	published []events.Event
}

func (d *fakeDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *fakeDispatcher) lastEventType() events.EventType {
	if len(d.published) == 0 {
		return ""
	}
	return d.published[len(d.published)-1].Type
}

type fakeCache struct {
	entries     map[string]map[string]bool
	gets        int
	sets        int
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]map[string]bool{}}
}

func (c *fakeCache) GetDailyFlags(_ context.Context, dateKey string) (map[string]bool, bool) {
	c.gets++
	flags, ok := c.entries[dateKey]
	return flags, ok
}

func (c *fakeCache) SetDailyFlags(_ context.Context, dateKey string, flags map[string]bool) {
	c.sets++
	c.entries[dateKey] = flags
}

func (c *fakeCache) Invalidate(_ context.Context, dateKeys ...string) {
	for _, key := range dateKeys {
		delete(c.entries, key)
		c.invalidated = append(c.invalidated, key)
	}
}

// fakeConflictChecker scripts the advisory check for assignment tests.
type fakeConflictChecker struct {
	result      *domain.ConflictResult
	err         error
	checkCalls  int
	invalidated []string
}

func (f *fakeConflictChecker) CheckConflict(_ context.Context, _ string, _, _ time.Time, _ *string) (*domain.ConflictResult, error) {
	f.checkCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.ConflictResult{}, nil
}

func (f *fakeConflictChecker) InvalidateDays(_ context.Context, days ...time.Time) {
	for _, day := range days {
		f.invalidated = append(f.invalidated, day.Format(DateKeyFormat))
	}
}

func strPtr(s string) *string { return &s }

func partsParams(ticketID string) repository.PartsHoldParams {
	return repository.PartsHoldParams{
		TicketID: ticketID,
		Urgency:  domain.HoldUrgencyMedium,
		Summary:  "awaiting part",
		Items:    []domain.PartsRequestItem{{PartID: "P-100", Quantity: 1}},
		Now:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func commitment(ticketID, technicianID string, start time.Time, minutes int) domain.Commitment {
	return domain.Commitment{
		TicketID:        ticketID,
		TicketNumber:    "FST-" + ticketID,
		Title:           "job " + ticketID,
		CustomerName:    "customer",
		TechnicianID:    technicianID,
		Start:           start,
		DurationMinutes: minutes,
	}
}
