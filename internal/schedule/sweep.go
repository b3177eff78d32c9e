package schedule

import (
	"sort"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// DayOverlaps computes which commitments in a single technician-day
// overlap which, keyed by ticket id with the overlapping ticket ids in
// start order. Commitments without at least one overlap are absent
// from the result.
//
// The scan sorts by start time and keeps an active set of commitments
// whose end has not yet passed the current start, so a full day costs
// O(n log n) instead of the all-pairs O(n^2).
func DayOverlaps(commitments []domain.Commitment) map[string][]string {
	if len(commitments) < 2 {
		return map[string][]string{}
	}

	ordered := make([]domain.Commitment, len(commitments))
	copy(ordered, commitments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].TicketID < ordered[j].TicketID
		}
		return ordered[i].Start.Before(ordered[j].Start)
	})

	result := map[string][]string{}
	active := make([]domain.Commitment, 0, len(ordered))
	for _, current := range ordered {
		// Drop everything that ended at or before this start; half-open
		// intervals make back-to-back commitments non-conflicting.
		kept := active[:0]
		for _, open := range active {
			if open.End().After(current.Start) {
				kept = append(kept, open)
			}
		}
		active = kept

		for _, open := range active {
			result[open.TicketID] = append(result[open.TicketID], current.TicketID)
			result[current.TicketID] = append(result[current.TicketID], open.TicketID)
		}
		active = append(active, current)
	}
	return result
}

// ConflictingTickets returns the distinct ticket ids involved in at
// least one overlap within a single technician-day.
func ConflictingTickets(commitments []domain.Commitment) []string {
	overlaps := DayOverlaps(commitments)
	ids := make([]string, 0, len(overlaps))
	for id := range overlaps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
