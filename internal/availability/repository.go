package availability

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medibook-backend/internal/models"
)

var ErrNotFound = errors.New("availability not found")

type Repository interface {
	Insert(ctx context.Context, item models.Availability) error
	Get(ctx context.Context, doctorID, date string) (models.Availability, error)
	DeleteForDoctor(ctx context.Context, doctorID string) (int64, error)
	DeleteDatesBefore(ctx context.Context, date string) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, item models.Availability) error {
	_, err := r.col.InsertOne(ctx, item)
	return err
}

// Get returns the declaration for (doctorID, date). Duplicate publishes are
// possible; the most recently created record wins, so reads are
// deterministic regardless of store ordering.
func (r *MongoRepository) Get(ctx context.Context, doctorID, date string) (models.Availability, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var item models.Availability
	err := r.col.FindOne(ctx, bson.M{"doctorId": doctorID, "date": date}, opts).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Availability{}, ErrNotFound
		}
		return models.Availability{}, err
	}
	return item, nil
}

func (r *MongoRepository) DeleteForDoctor(ctx context.Context, doctorID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"doctorId": doctorID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) DeleteDatesBefore(ctx context.Context, date string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"date": bson.M{"$lt": date}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
