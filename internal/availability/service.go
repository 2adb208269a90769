package availability

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"medibook-backend/internal/models"
)

// BookedCounter reports how many appointments the ledger holds for a
// (doctor, date) key. Counts are read fresh on every query; a query
// immediately followed by a booking may race, which is acceptable for
// read-only snapshots.
type BookedCounter interface {
	Count(ctx context.Context, doctorID, date string) (int64, error)
}

// Snapshot is the read-only view of a doctor's capacity on one date.
type Snapshot struct {
	Exists          bool   `json:"exists"`
	StartTime       string `json:"startTime,omitempty"`
	PatientDuration int    `json:"patientDuration,omitempty"`
	TotalSlots      int    `json:"totalSlots,omitempty"`
	BookedCount     int    `json:"bookedCount"`
	RemainingSlots  int    `json:"remainingSlots"`
	IsOpen          bool   `json:"isOpen"`
}

type PublishRequest struct {
	Date            string `json:"date" validate:"required,date"`
	StartTime       string `json:"startTime" validate:"required,clock"`
	PatientDuration int    `json:"patientDuration" validate:"required,gt=0"`
	TotalSlots      int    `json:"totalSlots" validate:"required,gt=0"`
}

type Service struct {
	repo     Repository
	counter  BookedCounter
	location *time.Location
}

func NewService(repo Repository, counter BookedCounter, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		counter:  counter,
		location: location,
	}
}

// Publish inserts a new declaration. A repeat publish for the same
// (doctor, date) is not rejected; Get resolves duplicates most-recent-wins.
func (s *Service) Publish(ctx context.Context, doctorID string, req PublishRequest) (models.Availability, error) {
	item := models.Availability{
		ID:              primitive.NewObjectID().Hex(),
		DoctorID:        doctorID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		PatientDuration: req.PatientDuration,
		TotalSlots:      req.TotalSlots,
		CreatedAt:       time.Now().In(s.location),
	}

	if err := s.repo.Insert(ctx, item); err != nil {
		return models.Availability{}, err
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, doctorID, date string) (models.Availability, error) {
	return s.repo.Get(ctx, doctorID, date)
}

// Snapshot reports remaining capacity for (doctorID, date) without mutating
// state. A missing declaration yields {Exists: false}.
func (s *Service) Snapshot(ctx context.Context, doctorID, date string) (Snapshot, error) {
	item, err := s.repo.Get(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Snapshot{Exists: false}, nil
		}
		return Snapshot{}, err
	}

	booked, err := s.counter.Count(ctx, doctorID, date)
	if err != nil {
		return Snapshot{}, err
	}

	remaining := item.TotalSlots - int(booked)
	if remaining < 0 {
		remaining = 0
	}

	return Snapshot{
		Exists:          true,
		StartTime:       item.StartTime,
		PatientDuration: item.PatientDuration,
		TotalSlots:      item.TotalSlots,
		BookedCount:     int(booked),
		RemainingSlots:  remaining,
		IsOpen:          remaining > 0,
	}, nil
}

func (s *Service) DeleteForDoctor(ctx context.Context, doctorID string) (int64, error) {
	return s.repo.DeleteForDoctor(ctx, doctorID)
}

func (s *Service) DeleteDatesBefore(ctx context.Context, date string) (int64, error) {
	return s.repo.DeleteDatesBefore(ctx, date)
}
