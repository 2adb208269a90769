package directory

import (
	"context"

	"medibook-backend/internal/availability"
	"medibook-backend/internal/models"
)

// SnapshotProvider is the read-only view of the availability query service.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, doctorID, date string) (availability.Snapshot, error)
}

// DoctorResult pairs a doctor with their capacity snapshot for a requested
// date. Availability is nil when no date was supplied (unknown), present
// with Exists=false when the doctor published nothing for that date.
type DoctorResult struct {
	Doctor       models.User            `json:"doctor"`
	Availability *availability.Snapshot `json:"availability"`
}

type Service struct {
	repo      Repository
	snapshots SnapshotProvider
}

func NewService(repo Repository, snapshots SnapshotProvider) *Service {
	return &Service{
		repo:      repo,
		snapshots: snapshots,
	}
}

// Search returns matching doctors in no guaranteed order, with snapshots
// attached when a date is given.
func (s *Service) Search(ctx context.Context, filter SearchFilter, date string) ([]DoctorResult, error) {
	doctors, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	results := make([]DoctorResult, 0, len(doctors))
	for _, doc := range doctors {
		result := DoctorResult{Doctor: doc}
		if date != "" {
			snap, err := s.snapshots.Snapshot(ctx, doc.ID, date)
			if err != nil {
				return nil, err
			}
			result.Availability = &snap
		}
		results = append(results, result)
	}
	return results, nil
}

// AvailableDoctors returns only the doctors who published availability for
// the date, each with its snapshot.
func (s *Service) AvailableDoctors(ctx context.Context, date string) ([]DoctorResult, error) {
	doctors, err := s.repo.Search(ctx, SearchFilter{})
	if err != nil {
		return nil, err
	}

	results := make([]DoctorResult, 0)
	for _, doc := range doctors {
		snap, err := s.snapshots.Snapshot(ctx, doc.ID, date)
		if err != nil {
			return nil, err
		}
		if !snap.Exists {
			continue
		}
		results = append(results, DoctorResult{Doctor: doc, Availability: &snap})
	}
	return results, nil
}

func (s *Service) Profile(ctx context.Context, doctorID string) (models.User, error) {
	return s.repo.FindDoctor(ctx, doctorID)
}
