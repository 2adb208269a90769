package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"medibook-backend/internal/schedule"
)

type sweepRecorder struct {
	before string
}

func (s *sweepRecorder) DeleteDatesBefore(ctx context.Context, date string) (int64, error) {
	s.before = date
	return 2, nil
}

func TestRetentionSweepsBeforeToday(t *testing.T) {
	avail := &sweepRecorder{}
	appts := &sweepRecorder{}
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))

	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	NewRetention(avail, appts, loc, log).Run()

	today := schedule.FormatDate(time.Now().In(loc))
	if avail.before != today {
		t.Errorf("availability boundary = %q, want %q", avail.before, today)
	}
	if appts.before != today {
		t.Errorf("appointment boundary = %q, want %q", appts.before, today)
	}
}
