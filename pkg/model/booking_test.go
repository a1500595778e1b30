package model

import (
	"testing"
	"time"
)

func TestBookingStatusClassification(t *testing.T) {
	cases := []struct {
		status   BookingStatus
		active   bool
		terminal bool
	}{
		{StatusPending, true, false},
		{StatusConfirmed, true, false},
		{StatusCancelled, false, true},
		{StatusCompleted, false, true},
	}

	for _, tc := range cases {
		if tc.status.Active() != tc.active {
			t.Errorf("%s: Active() = %v, want %v", tc.status, tc.status.Active(), tc.active)
		}
		if tc.status.Terminal() != tc.terminal {
			t.Errorf("%s: Terminal() = %v, want %v", tc.status, tc.status.Terminal(), tc.terminal)
		}
	}

	if BookingStatus("archived").Valid() {
		t.Error("unknown status must not be valid")
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	booking := &Booking{
		StartTime: base,
		EndTime:   base.Add(time.Hour),
	}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical interval", base, base.Add(time.Hour), true},
		{"overlapping tail", base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"overlapping head", base.Add(-30 * time.Minute), base.Add(30 * time.Minute), true},
		{"contained", base.Add(15 * time.Minute), base.Add(45 * time.Minute), true},
		{"containing", base.Add(-time.Hour), base.Add(2 * time.Hour), true},
		{"adjacent after", base.Add(time.Hour), base.Add(2 * time.Hour), false},
		{"adjacent before", base.Add(-time.Hour), base, false},
		{"disjoint", base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := booking.Overlaps(tc.start, tc.end); got != tc.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
		})
	}
}
