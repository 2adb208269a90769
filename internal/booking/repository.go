package booking

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medibook-backend/internal/models"
)

var (
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotTaken is the storage-level conflict on the unique
	// (doctorId, date, time) index. The allocator retries on it; it never
	// reaches callers directly.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrDuplicateReference is the unique-constraint violation on
	// paymentReference. Surfaced as a conflict; should never occur in
	// correct operation.
	ErrDuplicateReference = errors.New("payment reference already used")
)

// Ledger is the appointment collection, authoritative for booked-slot
// counts.
type Ledger interface {
	Insert(ctx context.Context, appt models.Appointment) error
	Count(ctx context.Context, doctorID, date string) (int64, error)
	FindByID(ctx context.Context, id string) (models.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	ListAll(ctx context.Context, limit, offset int64) ([]models.Appointment, int64, error)
	AttachPaymentIntent(ctx context.Context, id, reference string) error
	UpdatePaymentStatusByReference(ctx context.Context, reference, status string) error
	DeleteByID(ctx context.Context, id string) (bool, error)
	DeleteByDoctor(ctx context.Context, doctorID string) (int64, error)
	DeleteByPatient(ctx context.Context, patientID string) (int64, error)
	DeleteDatesBefore(ctx context.Context, date string) (int64, error)
}

type MongoLedger struct {
	col *mongo.Collection
}

func NewLedger(col *mongo.Collection) *MongoLedger {
	return &MongoLedger{col: col}
}

func (l *MongoLedger) Insert(ctx context.Context, appt models.Appointment) error {
	_, err := l.col.InsertOne(ctx, appt)
	if err != nil {
		// Inserts never carry a paymentReference, so a duplicate key here
		// is always the slot index.
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotTaken
		}
		return err
	}
	return nil
}

// Count includes every status; cancelled and payment-failed appointments do
// not free their slot (preserved source behavior, see DESIGN.md).
func (l *MongoLedger) Count(ctx context.Context, doctorID, date string) (int64, error) {
	return l.col.CountDocuments(ctx, bson.M{"doctorId": doctorID, "date": date})
}

func (l *MongoLedger) FindByID(ctx context.Context, id string) (models.Appointment, error) {
	var appt models.Appointment
	err := l.col.FindOne(ctx, bson.M{"_id": id}).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}
	return appt, nil
}

func (l *MongoLedger) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Appointment, error) {
	cursor, err := l.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Appointment, 0)
	for cursor.Next(ctx) {
		var appt models.Appointment
		if err := cursor.Decode(&appt); err != nil {
			return nil, err
		}
		items = append(items, appt)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (l *MongoLedger) ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	return l.list(ctx, bson.M{"doctorId": doctorID}, opts)
}

func (l *MongoLedger) ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	return l.list(ctx, bson.M{"patientId": patientID}, opts)
}

func (l *MongoLedger) ListAll(ctx context.Context, limit, offset int64) ([]models.Appointment, int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	items, err := l.list(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := l.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// AttachPaymentIntent records the provider reference and moves the
// appointment to pending. The sparse unique index on paymentReference
// rejects reuse.
func (l *MongoLedger) AttachPaymentIntent(ctx context.Context, id, reference string) error {
	update := bson.M{"$set": bson.M{
		"paymentStatus":    models.PaymentStatusPending,
		"paymentReference": reference,
	}}
	res, err := l.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReference
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *MongoLedger) UpdatePaymentStatusByReference(ctx context.Context, reference, status string) error {
	res, err := l.col.UpdateOne(ctx,
		bson.M{"paymentReference": reference},
		bson.M{"$set": bson.M{"paymentStatus": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *MongoLedger) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := l.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (l *MongoLedger) DeleteByDoctor(ctx context.Context, doctorID string) (int64, error) {
	res, err := l.col.DeleteMany(ctx, bson.M{"doctorId": doctorID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (l *MongoLedger) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	res, err := l.col.DeleteMany(ctx, bson.M{"patientId": patientID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (l *MongoLedger) DeleteDatesBefore(ctx context.Context, date string) (int64, error) {
	res, err := l.col.DeleteMany(ctx, bson.M{"date": bson.M{"$lt": date}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
