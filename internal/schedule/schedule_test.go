package schedule

import (
	"testing"
	"time"
)

func TestSlotTimeSequence(t *testing.T) {
	cases := []struct {
		start    string
		ordinal  int
		duration int
		want     string
	}{
		{"09:00", 0, 15, "09:00"},
		{"09:00", 1, 15, "09:15"},
		{"09:00", 4, 15, "10:00"},
		{"09:00", 0, 20, "09:00"},
		{"09:00", 1, 20, "09:20"},
		{"09:00", 2, 20, "09:40"},
		{"23:30", 2, 20, "00:10"},
	}
	for _, tc := range cases {
		got, err := SlotTime(tc.start, tc.ordinal, tc.duration)
		if err != nil {
			t.Fatalf("SlotTime(%q, %d, %d) error: %v", tc.start, tc.ordinal, tc.duration, err)
		}
		if got != tc.want {
			t.Fatalf("SlotTime(%q, %d, %d) = %q, want %q", tc.start, tc.ordinal, tc.duration, got, tc.want)
		}
	}
}

func TestSlotTimeInvalid(t *testing.T) {
	if _, err := SlotTime("9am", 0, 15); err != ErrInvalidTime {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
	if _, err := SlotTime("09:00", 0, 0); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := SlotTime("09:00", -1, 15); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration for negative ordinal, got %v", err)
	}
}

func TestParseClockToMinutes(t *testing.T) {
	min, err := ParseClockToMinutes("10:30")
	if err != nil {
		t.Fatalf("ParseClockToMinutes error: %v", err)
	}
	if min != 630 {
		t.Fatalf("expected 630, got %d", min)
	}
	if _, err := ParseClockToMinutes("25:00"); err == nil {
		t.Fatalf("expected error for out-of-range hour")
	}
}

func TestMinutesToClockWraps(t *testing.T) {
	if got := MinutesToClock(minutesPerDay + 30); got != "00:30" {
		t.Fatalf("expected 00:30, got %q", got)
	}
	if got := MinutesToClock(0); got != "00:00" {
		t.Fatalf("expected 00:00, got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	date, err := ParseDate("2026-02-03", loc)
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if FormatDate(date) != "2026-02-03" {
		t.Fatalf("round trip gave %q", FormatDate(date))
	}
	if date.Location() != loc {
		t.Fatalf("expected date in given location")
	}

	if _, err := ParseDate("02/04/2026", loc); err != ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
