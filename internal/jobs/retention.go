package jobs

import (
	"context"
	"log/slog"
	"time"

	"medibook-backend/internal/schedule"
)

// DateSweeper removes records whose date sorts strictly before the given
// boundary. Both the availability store and the appointment ledger satisfy
// it.
type DateSweeper interface {
	DeleteDatesBefore(ctx context.Context, date string) (int64, error)
}

// Retention prunes availability declarations and appointments for dates
// that have already passed. It runs from the scheduler at midnight in the
// clinic timezone; today's records are always kept.
type Retention struct {
	availabilities DateSweeper
	appointments   DateSweeper
	location       *time.Location
	log            *slog.Logger
}

func NewRetention(availabilities, appointments DateSweeper, location *time.Location, log *slog.Logger) *Retention {
	return &Retention{
		availabilities: availabilities,
		appointments:   appointments,
		location:       location,
		log:            log,
	}
}

// Run executes one sweep. Errors are logged, not returned: the scheduler
// has no use for them and the next run retries anyway.
func (r *Retention) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	today := schedule.FormatDate(time.Now().In(r.location))

	removedAvail, err := r.availabilities.DeleteDatesBefore(ctx, today)
	if err != nil {
		r.log.Error("retention sweep: availability error", slog.String("error", err.Error()))
	}
	removedAppts, err := r.appointments.DeleteDatesBefore(ctx, today)
	if err != nil {
		r.log.Error("retention sweep: appointment error", slog.String("error", err.Error()))
	}

	r.log.Info("retention sweep: done",
		slog.String("before", today),
		slog.Int64("availabilities_removed", removedAvail),
		slog.Int64("appointments_removed", removedAppts),
	)
}
