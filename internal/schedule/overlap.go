// Package schedule holds the pure temporal logic of the dispatch
// board: interval overlap and the sweep-line day scan. It performs no
// I/O and reads no clock.
package schedule

import "time"

// Overlaps reports whether two half-open intervals [startA, endA) and
// [startB, endB) intersect. Back-to-back windows (endA == startB) do
// not overlap, so tight scheduling never flags a false conflict. Both
// intervals are assumed well-formed (end >= start); validation is the
// caller's job.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && endA.After(startB)
}
