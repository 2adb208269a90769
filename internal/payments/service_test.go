package payments

import (
	"context"
	"testing"

	"medibook-backend/internal/booking"
	"medibook-backend/internal/models"
)

type fakeLedger struct {
	appointments map[string]*models.Appointment
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{appointments: make(map[string]*models.Appointment)}
}

func (f *fakeLedger) FindByID(ctx context.Context, id string) (models.Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok {
		return models.Appointment{}, booking.ErrNotFound
	}
	return *appt, nil
}

func (f *fakeLedger) AttachPaymentIntent(ctx context.Context, id, reference string) error {
	for _, appt := range f.appointments {
		if appt.PaymentReference == reference {
			return booking.ErrDuplicateReference
		}
	}
	appt, ok := f.appointments[id]
	if !ok {
		return booking.ErrNotFound
	}
	appt.PaymentReference = reference
	appt.PaymentStatus = models.PaymentStatusPending
	return nil
}

func (f *fakeLedger) UpdatePaymentStatusByReference(ctx context.Context, reference, status string) error {
	for _, appt := range f.appointments {
		if appt.PaymentReference == reference {
			appt.PaymentStatus = status
			return nil
		}
	}
	return booking.ErrNotFound
}

func TestCreateIntentChargesStoredFee(t *testing.T) {
	ledger := newFakeLedger()
	ledger.appointments["a1"] = &models.Appointment{
		ID:              "a1",
		PatientID:       "p1",
		ConsultationFee: 7500,
		PaymentStatus:   models.PaymentStatusPending,
	}
	svc := NewService(ledger, NewSyntheticProvider(), "INR")

	intent, err := svc.CreateIntent(context.Background(), "p1", "a1")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.Amount != 7500 {
		t.Errorf("amount = %d, want the stored consultation fee 7500", intent.Amount)
	}
	if intent.Currency != "INR" {
		t.Errorf("currency = %q, want INR", intent.Currency)
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		t.Errorf("intent missing id or client secret: %+v", intent)
	}
	if got := ledger.appointments["a1"].PaymentReference; got != intent.ID {
		t.Errorf("paymentReference = %q, want %q", got, intent.ID)
	}
	if got := ledger.appointments["a1"].PaymentStatus; got != models.PaymentStatusPending {
		t.Errorf("paymentStatus = %q, want pending", got)
	}
}

func TestCreateIntentRejectsOtherPatients(t *testing.T) {
	ledger := newFakeLedger()
	ledger.appointments["a1"] = &models.Appointment{ID: "a1", PatientID: "p1", ConsultationFee: 5000}
	svc := NewService(ledger, NewSyntheticProvider(), "INR")

	if _, err := svc.CreateIntent(context.Background(), "p2", "a1"); err != ErrNotAuthorized {
		t.Fatalf("foreign patient: err = %v, want ErrNotAuthorized", err)
	}
	if _, err := svc.CreateIntent(context.Background(), "p1", "missing"); err != ErrNotAuthorized {
		t.Fatalf("unknown appointment: err = %v, want ErrNotAuthorized", err)
	}
	if got := ledger.appointments["a1"].PaymentReference; got != "" {
		t.Errorf("paymentReference = %q, want empty after rejected intents", got)
	}
}

func TestApplyOutcome(t *testing.T) {
	cases := []struct {
		outcome string
		want    string
	}{
		{OutcomeSucceeded, models.PaymentStatusPaid},
		{OutcomeFailed, models.PaymentStatusFailed},
	}
	for _, tc := range cases {
		ledger := newFakeLedger()
		ledger.appointments["a1"] = &models.Appointment{
			ID:               "a1",
			PaymentReference: "pi_1",
			PaymentStatus:    models.PaymentStatusPending,
		}
		svc := NewService(ledger, NewSyntheticProvider(), "INR")

		if err := svc.ApplyOutcome(context.Background(), OutcomeEvent{Reference: "pi_1", Outcome: tc.outcome}); err != nil {
			t.Fatalf("ApplyOutcome(%s): %v", tc.outcome, err)
		}
		if got := ledger.appointments["a1"].PaymentStatus; got != tc.want {
			t.Errorf("ApplyOutcome(%s): paymentStatus = %q, want %q", tc.outcome, got, tc.want)
		}
	}
}

func TestApplyOutcomeUnknownReference(t *testing.T) {
	svc := NewService(newFakeLedger(), NewSyntheticProvider(), "INR")
	err := svc.ApplyOutcome(context.Background(), OutcomeEvent{Reference: "pi_missing", Outcome: OutcomeSucceeded})
	if err != booking.ErrNotFound {
		t.Fatalf("err = %v, want booking.ErrNotFound", err)
	}
}
