package hktime

import (
	"errors"
	"testing"
	"time"
)

func TestTodayAndCurrentHourUseHongKongZone(t *testing.T) {
	// 2025-06-09 01:30 UTC is 09:30 in Hong Kong.
	clock := Fixed(time.Date(2025, 6, 9, 1, 30, 0, 0, time.UTC))

	if got := Today(clock); got != "2025-06-09" {
		t.Fatalf("expected 2025-06-09, got %s", got)
	}
	if got := CurrentHour(clock); got != 9 {
		t.Fatalf("expected hour 9, got %d", got)
	}
}

func TestTodayCrossesDateLineAheadOfUTC(t *testing.T) {
	// 2025-06-09 18:00 UTC is already 2025-06-10 02:00 in Hong Kong.
	clock := Fixed(time.Date(2025, 6, 9, 18, 0, 0, 0, time.UTC))

	if got := Today(clock); got != "2025-06-10" {
		t.Fatalf("expected 2025-06-10, got %s", got)
	}
	if got := CurrentHour(clock); got != 2 {
		t.Fatalf("expected hour 2, got %d", got)
	}
}

func TestWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"2025-06-09": time.Monday,
		"2025-06-13": time.Friday,
		"2025-06-14": time.Saturday,
		"2025-06-15": time.Sunday,
	}
	for date, want := range cases {
		got, err := Weekday(date)
		if err != nil {
			t.Fatalf("Weekday(%s) returned error: %v", date, err)
		}
		if got != want {
			t.Fatalf("Weekday(%s) = %v, want %v", date, got, want)
		}
	}
}

func TestParseDateRejectsBadInput(t *testing.T) {
	for _, date := range []string{"", "2025-6-9", "09-06-2025", "2025-13-01", "2025-06-09T10:00", "not-a-date"} {
		if _, err := ParseDate(date); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) expected ErrInvalidDate, got %v", date, err)
		}
	}
}
