package booking

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"medibook-backend/internal/availability"
	"medibook-backend/internal/models"
	"medibook-backend/internal/schedule"
)

var (
	// ErrNoAvailability: booking attempted for a (doctor, date) with no
	// published declaration.
	ErrNoAvailability = errors.New("doctor not available on this date")

	// ErrSlotsExhausted: all slots taken at evaluation time.
	ErrSlotsExhausted = errors.New("all slots booked")

	ErrInvalidPaymentMode = errors.New("invalid payment mode")
)

// AvailabilityGetter is the slice of the availability store the allocator
// needs.
type AvailabilityGetter interface {
	Get(ctx context.Context, doctorID, date string) (models.Availability, error)
}

// Allocator turns a booking request into a confirmed appointment with a
// deterministically assigned time: the k-th committed booking for a
// (doctor, date) gets startTime + k*patientDuration.
type Allocator struct {
	availability AvailabilityGetter
	ledger       Ledger
	locks        *slotLocks
	location     *time.Location
	fee          int
}

func NewAllocator(av AvailabilityGetter, ledger Ledger, location *time.Location) *Allocator {
	return &Allocator{
		availability: av,
		ledger:       ledger,
		locks:        newSlotLocks(),
		location:     location,
		fee:          models.DefaultConsultationFee,
	}
}

// BookSlot assigns the next open ordinal for (doctorID, date) to patientID.
// paymentStatus must be offline or pending.
//
// The sequence count -> compare -> compute -> insert is a read-modify-write
// over the ledger count, serialized two ways: an in-process lock per
// (doctor, date) key, and the unique (doctorId, date, time) index at the
// storage layer. A duplicate-key loser (another replica committed the same
// ordinal first) re-reads the count and tries the next ordinal; once the
// count reaches TotalSlots it reports ErrSlotsExhausted. At most TotalSlots
// appointments ever commit for a key, and no two share a time.
func (a *Allocator) BookSlot(ctx context.Context, doctorID, date, patientID, paymentStatus string) (models.Appointment, error) {
	if paymentStatus != models.PaymentStatusOffline && paymentStatus != models.PaymentStatusPending {
		return models.Appointment{}, ErrInvalidPaymentMode
	}

	unlock := a.locks.Lock(doctorID + "|" + date)
	defer unlock()

	avail, err := a.availability.Get(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, availability.ErrNotFound) {
			return models.Appointment{}, ErrNoAvailability
		}
		return models.Appointment{}, err
	}

	// Retries are bounded by TotalSlots: stale rows from a superseded
	// declaration can collide at the same time string without raising the
	// ordinal, and the bound keeps that from looping.
	for attempt := 0; attempt <= avail.TotalSlots; attempt++ {
		booked, err := a.ledger.Count(ctx, doctorID, date)
		if err != nil {
			return models.Appointment{}, err
		}
		if booked >= int64(avail.TotalSlots) {
			return models.Appointment{}, ErrSlotsExhausted
		}

		slotTime, err := schedule.SlotTime(avail.StartTime, int(booked), avail.PatientDuration)
		if err != nil {
			return models.Appointment{}, err
		}

		appt := models.Appointment{
			ID:              primitive.NewObjectID().Hex(),
			DoctorID:        doctorID,
			PatientID:       patientID,
			Date:            date,
			Time:            slotTime,
			Status:          models.AppointmentStatusBooked,
			ConsultationFee: a.fee,
			PaymentStatus:   paymentStatus,
			CreatedAt:       time.Now().In(a.location),
		}

		err = a.ledger.Insert(ctx, appt)
		if errors.Is(err, ErrSlotTaken) {
			continue
		}
		if err != nil {
			return models.Appointment{}, err
		}
		return appt, nil
	}

	return models.Appointment{}, ErrSlotsExhausted
}

// ListForPrincipal returns the appointments where the principal is the
// doctor or the patient, depending on role.
func (a *Allocator) ListForPrincipal(ctx context.Context, principalID, role string) ([]models.Appointment, error) {
	if role == models.RoleDoctor {
		return a.ledger.ListByDoctor(ctx, principalID)
	}
	return a.ledger.ListByPatient(ctx, principalID)
}
