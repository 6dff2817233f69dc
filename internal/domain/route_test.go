package domain

import (
	"testing"
	"time"
)

func TestRouteLockedAt(t *testing.T) {
	departure := time.Date(2026, 9, 12, 8, 0, 0, 0, time.UTC)
	route := &Route{ID: "r1", DepartureAt: departure}

	cases := []struct {
		name   string
		locked bool
		now    time.Time
		want   bool
	}{
		{"explicit lock", true, departure.Add(-72 * time.Hour), true},
		{"well before horizon", false, departure.Add(-48 * time.Hour), false},
		{"just outside horizon", false, departure.Add(-24*time.Hour - time.Second), false},
		{"exactly at horizon", false, departure.Add(-24 * time.Hour), true},
		{"inside horizon", false, departure.Add(-1 * time.Hour), true},
		{"after departure", false, departure.Add(time.Hour), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			route.Locked = tc.locked
			if got := route.LockedAt(tc.now); got != tc.want {
				t.Fatalf("LockedAt(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}
