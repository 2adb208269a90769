package payments

import (
	"context"
	"errors"

	"medibook-backend/internal/booking"
	"medibook-backend/internal/models"
)

var (
	ErrNotAuthorized  = errors.New("appointment not found or not authorized")
	ErrUnknownOutcome = errors.New("unknown outcome")
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// OutcomeEvent is the provider's asynchronous report for a previously
// created intent, keyed by its reference.
type OutcomeEvent struct {
	Reference string `json:"reference" validate:"required"`
	Outcome   string `json:"outcome" validate:"required,oneof=succeeded failed"`
}

// Ledger is the slice of the appointment ledger payments touch.
type Ledger interface {
	FindByID(ctx context.Context, id string) (models.Appointment, error)
	AttachPaymentIntent(ctx context.Context, id, reference string) error
	UpdatePaymentStatusByReference(ctx context.Context, reference, status string) error
}

type Service struct {
	ledger   Ledger
	provider Provider
	currency string
}

func NewService(ledger Ledger, provider Provider, currency string) *Service {
	return &Service{
		ledger:   ledger,
		provider: provider,
		currency: currency,
	}
}

// CreateIntent issues a charge intent for the patient's own appointment.
// The charged amount is always the stored consultation fee; callers cannot
// choose it. The ledger records the reference and moves the appointment to
// pending.
func (s *Service) CreateIntent(ctx context.Context, patientID, appointmentID string) (Intent, error) {
	appt, err := s.ledger.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return Intent{}, ErrNotAuthorized
		}
		return Intent{}, err
	}
	if appt.PatientID != patientID {
		return Intent{}, ErrNotAuthorized
	}

	intent, err := s.provider.CreateIntent(ctx, appt.ConsultationFee, s.currency, appointmentID)
	if err != nil {
		return Intent{}, err
	}

	if err := s.ledger.AttachPaymentIntent(ctx, appointmentID, intent.ID); err != nil {
		return Intent{}, err
	}
	return intent, nil
}

// ApplyOutcome maps a verified outcome event onto the ledger:
// succeeded -> paid, failed -> failed. A failed payment does not free the
// consumed slot ordinal.
func (s *Service) ApplyOutcome(ctx context.Context, event OutcomeEvent) error {
	var status string
	switch event.Outcome {
	case OutcomeSucceeded:
		status = models.PaymentStatusPaid
	case OutcomeFailed:
		status = models.PaymentStatusFailed
	default:
		return ErrUnknownOutcome
	}
	return s.ledger.UpdatePaymentStatusByReference(ctx, event.Reference, status)
}
