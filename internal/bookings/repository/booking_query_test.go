package repository

import (
	"testing"
	"time"

	"reservio/pkg/model"
)

func TestBuildListQueryNoFilters(t *testing.T) {
	query, args := buildListQuery("SELECT COUNT(*) FROM bookings", model.BookingFilter{})
	if query != "SELECT COUNT(*) FROM bookings" {
		t.Errorf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildListQueryAllFilters(t *testing.T) {
	ownerID := int64(7)
	status := model.StatusConfirmed
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	query, args := buildListQuery("SELECT * FROM bookings", model.BookingFilter{
		OwnerID: &ownerID,
		Status:  &status,
		From:    &from,
		To:      &to,
	})

	want := "SELECT * FROM bookings WHERE user_id = $1 AND status = $2 AND start_time >= $3 AND start_time < $4"
	if query != want {
		t.Errorf("query mismatch:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	if args[0] != ownerID || args[1] != status {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildListQuerySubsetKeepsPlaceholderOrder(t *testing.T) {
	status := model.StatusPending
	to := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	query, args := buildListQuery("SELECT * FROM bookings", model.BookingFilter{
		Status: &status,
		To:     &to,
	})

	want := "SELECT * FROM bookings WHERE status = $1 AND start_time < $2"
	if query != want {
		t.Errorf("query mismatch:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}
