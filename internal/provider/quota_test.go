package provider

import (
	"testing"
	"time"
)

func TestQuota_TrackDecrementsRemaining(t *testing.T) {
	q := NewQuota(3)
	if got := q.Remaining(); got != 3 {
		t.Fatalf("expected 3 remaining, got %d", got)
	}

	q.Track()
	if got := q.Remaining(); got != 2 {
		t.Fatalf("expected 2 remaining, got %d", got)
	}
}

func TestQuota_MonotonicWithinDay(t *testing.T) {
	q := NewQuota(5)
	prev := q.Remaining()
	for i := 0; i < 5; i++ {
		q.Track()
		cur := q.Remaining()
		if cur > prev {
			t.Fatalf("remaining increased from %d to %d", prev, cur)
		}
		if prev-cur != 1 && cur != 0 {
			t.Fatalf("expected decrease of exactly 1, got %d -> %d", prev, cur)
		}
		prev = cur
	}
	if q.Remaining() != 0 {
		t.Fatalf("expected exhausted quota, got %d", q.Remaining())
	}
}

func TestQuota_DailyReset(t *testing.T) {
	q := NewQuota(2)
	current := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return current }

	q.Track()
	q.Track()
	if q.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", q.Remaining())
	}

	// Next wall-clock day restores the full ceiling.
	current = current.Add(2 * time.Hour)
	if q.Remaining() != 2 {
		t.Fatalf("expected reset to 2 at day boundary, got %d", q.Remaining())
	}
}
