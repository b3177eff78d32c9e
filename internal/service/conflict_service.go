package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/schedule"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// DateKeyFormat keys conflict maps by calendar day.
const DateKeyFormat = "2006-01-02"

// ConflictMapCache caches computed daily conflict flags. A nil cache,
// a miss, or a cache failure all degrade to recomputation; the cache
// is never a source of errors.
type ConflictMapCache interface {
	GetDailyFlags(ctx context.Context, dateKey string) (map[string]bool, bool)
	SetDailyFlags(ctx context.Context, dateKey string, flags map[string]bool)
	Invalidate(ctx context.Context, dateKeys ...string)
}

// ConflictService detects scheduling collisions and builds the conflict
// maps behind calendar badges and board highlighting. All of its
// methods are pure reads; they may run concurrently with writes and a
// slightly stale answer is corrected on the next read.
type ConflictService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	cache       ConflictMapCache
}

// ConflictDependencies bundles repositories for the conflict service.
type ConflictDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	Cache          ConflictMapCache
}

// NewConflictService constructs the service.
func NewConflictService(deps ConflictDependencies) *ConflictService {
	return &ConflictService{
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
		cache:       deps.Cache,
	}
}

// CheckConflict decides whether assigning the technician to
// [start, end) collides with their existing same-day commitments. An
// unknown technician trivially has no commitments and yields an empty
// result. A store failure is reported as an unavailable error, never
// as "no conflict": the caller must be able to tell "I don't know"
// apart from "it's safe".
func (s *ConflictService) CheckConflict(ctx context.Context, technicianID string, start, end time.Time, excludeTicketID *string) (*domain.ConflictResult, error) {
	if _, err := s.technicians.GetByID(ctx, technicianID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ConflictResult{}, nil
		}
		return nil, apperrors.NewUnavailable("conflict status could not be determined", err)
	}

	dayStart, dayEnd := dayBounds(start)
	commitments, err := s.tickets.ListCommitments(ctx, repository.CommitmentFilter{
		TechnicianID:    &technicianID,
		From:            dayStart,
		To:              dayEnd,
		ExcludeTicketID: excludeTicketID,
	})
	if err != nil {
		return nil, apperrors.NewUnavailable("conflict status could not be determined", err)
	}

	result := &domain.ConflictResult{}
	for _, c := range commitments {
		if schedule.Overlaps(start, end, c.Start, c.End()) {
			result.Conflicts = append(result.Conflicts, c)
		}
	}
	result.HasConflict = len(result.Conflicts) > 0
	return result, nil
}

// DailyConflictFlags flags every commitment involved in at least one
// same-day overlap, across all technicians. Results are cached per day
// when a cache is configured.
func (s *ConflictService) DailyConflictFlags(ctx context.Context, day time.Time) (map[string]bool, error) {
	dateKey := day.Format(DateKeyFormat)
	if s.cache != nil {
		if flags, ok := s.cache.GetDailyFlags(ctx, dateKey); ok {
			return flags, nil
		}
	}

	dayStart, dayEnd := dayBounds(day)
	commitments, err := s.tickets.ListCommitments(ctx, repository.CommitmentFilter{
		From: dayStart,
		To:   dayEnd,
	})
	if err != nil {
		return nil, apperrors.NewUnavailable("conflict map could not be computed", err)
	}

	flags := map[string]bool{}
	for _, group := range groupByTechnician(commitments) {
		for _, ticketID := range schedule.ConflictingTickets(group) {
			flags[ticketID] = true
		}
	}

	if s.cache != nil {
		s.cache.SetDailyFlags(ctx, dateKey, flags)
	}
	return flags, nil
}

// TechnicianDayConflicts reports, for one technician's day, which
// specific tickets each ticket collides with.
func (s *ConflictService) TechnicianDayConflicts(ctx context.Context, technicianID string, day time.Time) (map[string][]string, error) {
	dayStart, dayEnd := dayBounds(day)
	commitments, err := s.tickets.ListCommitments(ctx, repository.CommitmentFilter{
		TechnicianID: &technicianID,
		From:         dayStart,
		To:           dayEnd,
	})
	if err != nil {
		return nil, apperrors.NewUnavailable("conflict map could not be computed", err)
	}
	return schedule.DayOverlaps(commitments), nil
}

// RangeConflictCounts tallies, for each day in [from, to], the number
// of distinct tickets involved in at least one conflict that day. A
// ticket touched by several pairwise collisions still counts once.
func (s *ConflictService) RangeConflictCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rangeStart, _ := dayBounds(from)
	_, rangeEnd := dayBounds(to)
	commitments, err := s.tickets.ListCommitments(ctx, repository.CommitmentFilter{
		From: rangeStart,
		To:   rangeEnd,
	})
	if err != nil {
		return nil, apperrors.NewUnavailable("conflict map could not be computed", err)
	}

	// Group per technician per day, then sweep each group.
	type bucket struct {
		dateKey string
		items   []domain.Commitment
	}
	buckets := map[string]*bucket{}
	for _, c := range commitments {
		dateKey := c.Start.Format(DateKeyFormat)
		key := c.TechnicianID + "|" + dateKey
		b, ok := buckets[key]
		if !ok {
			b = &bucket{dateKey: dateKey}
			buckets[key] = b
		}
		b.items = append(b.items, c)
	}

	counts := map[string]int{}
	for _, b := range buckets {
		counts[b.dateKey] += len(schedule.ConflictingTickets(b.items))
	}
	return counts, nil
}

// InvalidateDays drops cached conflict maps for the given days. Commit
// paths call this so the next read reflects the new schedule.
func (s *ConflictService) InvalidateDays(ctx context.Context, days ...time.Time) {
	if s.cache == nil || len(days) == 0 {
		return
	}
	keys := make([]string, 0, len(days))
	for _, day := range days {
		keys = append(keys, day.Format(DateKeyFormat))
	}
	s.cache.Invalidate(ctx, keys...)
}

// dayBounds returns the half-open [midnight, next midnight) window of
// the instant's calendar day, in the instant's own location. Cross-
// midnight proposals are out of scope; the proposal's start day is the
// conflict day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func groupByTechnician(commitments []domain.Commitment) map[string][]domain.Commitment {
	groups := map[string][]domain.Commitment{}
	for _, c := range commitments {
		groups[c.TechnicianID] = append(groups[c.TechnicianID], c)
	}
	return groups
}
