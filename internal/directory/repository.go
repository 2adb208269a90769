package directory

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"medibook-backend/internal/models"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// SearchFilter selects doctors by location; each supplied field is a
// case-insensitive exact match.
type SearchFilter struct {
	State   string
	City    string
	Pincode string
}

type Repository interface {
	Search(ctx context.Context, filter SearchFilter) ([]models.User, error)
	FindDoctor(ctx context.Context, doctorID string) (models.User, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func exactInsensitive(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
}

func (r *MongoRepository) Search(ctx context.Context, filter SearchFilter) ([]models.User, error) {
	query := bson.M{"role": models.RoleDoctor}
	if filter.State != "" {
		query["state"] = exactInsensitive(filter.State)
	}
	if filter.City != "" {
		query["city"] = exactInsensitive(filter.City)
	}
	if filter.Pincode != "" {
		query["pincode"] = exactInsensitive(filter.Pincode)
	}

	cursor, err := r.col.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	doctors := make([]models.User, 0)
	for cursor.Next(ctx) {
		var u models.User
		if err := cursor.Decode(&u); err != nil {
			return nil, err
		}
		doctors = append(doctors, u)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *MongoRepository) FindDoctor(ctx context.Context, doctorID string) (models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"_id": doctorID, "role": models.RoleDoctor}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrDoctorNotFound
		}
		return models.User{}, err
	}
	return u, nil
}
