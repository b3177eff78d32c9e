package schedule

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		startA, endA, startB, endB time.Time
		want                       bool
	}{
		{"contained", at(9, 0), at(11, 0), at(10, 0), at(10, 30), true},
		{"partial front", at(9, 0), at(10, 30), at(10, 0), at(12, 0), true},
		{"partial back", at(10, 0), at(12, 0), at(9, 0), at(10, 30), true},
		{"identical", at(9, 0), at(11, 0), at(9, 0), at(11, 0), true},
		{"back to back", at(9, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"back to back reversed", at(11, 0), at(12, 0), at(9, 0), at(11, 0), false},
		{"disjoint", at(8, 0), at(9, 0), at(13, 0), at(14, 0), false},
		{"touching start", at(9, 0), at(11, 0), at(8, 0), at(9, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.startA, tc.endA, tc.startB, tc.endB); got != tc.want {
				t.Fatalf("Overlaps(%v, %v, %v, %v) = %v, want %v", tc.startA, tc.endA, tc.startB, tc.endB, got, tc.want)
			}
		})
	}
}

func TestOverlapsSymmetry(t *testing.T) {
	pairs := [][4]time.Time{
		{at(9, 0), at(11, 0), at(10, 0), at(10, 30)},
		{at(9, 0), at(11, 0), at(11, 0), at(12, 0)},
		{at(8, 0), at(9, 0), at(13, 0), at(14, 0)},
		{at(9, 0), at(9, 0), at(9, 0), at(10, 0)},
	}
	for _, p := range pairs {
		ab := Overlaps(p[0], p[1], p[2], p[3])
		ba := Overlaps(p[2], p[3], p[0], p[1])
		if ab != ba {
			t.Fatalf("overlap not symmetric for %v: %v vs %v", p, ab, ba)
		}
	}
}

func TestOverlapsBoundaryExclusion(t *testing.T) {
	// [t0, t1) and [t1, t2) must never conflict, for any t0 < t1 < t2.
	for _, gap := range []time.Duration{time.Minute, time.Hour, 5 * time.Hour} {
		t0 := at(8, 0)
		t1 := t0.Add(gap)
		t2 := t1.Add(gap)
		if Overlaps(t0, t1, t1, t2) {
			t.Fatalf("back-to-back intervals reported as overlapping (gap %v)", gap)
		}
	}
}
