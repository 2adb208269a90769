package directory

import (
	"context"
	"strings"
	"testing"

	"medibook-backend/internal/availability"
	"medibook-backend/internal/models"
)

type fakeRepo struct {
	doctors []models.User
}

func matches(value, filter string) bool {
	return filter == "" || strings.EqualFold(value, filter)
}

func (f *fakeRepo) Search(ctx context.Context, filter SearchFilter) ([]models.User, error) {
	out := make([]models.User, 0)
	for _, d := range f.doctors {
		if matches(d.State, filter.State) && matches(d.City, filter.City) && matches(d.Pincode, filter.Pincode) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindDoctor(ctx context.Context, doctorID string) (models.User, error) {
	for _, d := range f.doctors {
		if d.ID == doctorID {
			return d, nil
		}
	}
	return models.User{}, ErrDoctorNotFound
}

type fakeSnapshots struct {
	byKey map[string]availability.Snapshot
}

func (f *fakeSnapshots) Snapshot(ctx context.Context, doctorID, date string) (availability.Snapshot, error) {
	snap, ok := f.byKey[doctorID+"|"+date]
	if !ok {
		return availability.Snapshot{Exists: false}, nil
	}
	return snap, nil
}

func testService() *Service {
	repo := &fakeRepo{doctors: []models.User{
		{ID: "doc1", Role: models.RoleDoctor, State: "Karnataka", City: "Bangalore", Pincode: "560001"},
		{ID: "doc2", Role: models.RoleDoctor, State: "Karnataka", City: "Mysore", Pincode: "570001"},
		{ID: "doc3", Role: models.RoleDoctor, State: "Kerala", City: "Kochi", Pincode: "682001"},
	}}
	snaps := &fakeSnapshots{byKey: map[string]availability.Snapshot{
		"doc1|2024-06-01": {Exists: true, StartTime: "09:00", PatientDuration: 20, TotalSlots: 3, RemainingSlots: 1, IsOpen: true},
		"doc2|2024-06-01": {Exists: true, StartTime: "10:00", PatientDuration: 15, TotalSlots: 4, BookedCount: 4, RemainingSlots: 0, IsOpen: false},
	}}
	return NewService(repo, snaps)
}

func asIDSet(results []DoctorResult) map[string]bool {
	ids := make(map[string]bool, len(results))
	for _, r := range results {
		ids[r.Doctor.ID] = true
	}
	return ids
}

func TestSearchCaseInsensitiveFilters(t *testing.T) {
	svc := testService()

	results, err := svc.Search(context.Background(), SearchFilter{State: "karnataka"}, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	ids := asIDSet(results)
	if len(ids) != 2 || !ids["doc1"] || !ids["doc2"] {
		t.Fatalf("unexpected results: %v", ids)
	}

	results, err = svc.Search(context.Background(), SearchFilter{State: "KARNATAKA", City: "bangalore"}, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Doctor.ID != "doc1" {
		t.Fatalf("unexpected results: %v", asIDSet(results))
	}
}

func TestSearchWithoutDateHasUnknownAvailability(t *testing.T) {
	svc := testService()

	results, err := svc.Search(context.Background(), SearchFilter{}, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if r.Availability != nil {
			t.Fatalf("doctor %s: expected unknown availability, got %+v", r.Doctor.ID, r.Availability)
		}
	}
}

func TestSearchWithDateAttachesSnapshots(t *testing.T) {
	svc := testService()

	results, err := svc.Search(context.Background(), SearchFilter{}, "2024-06-01")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	byID := make(map[string]DoctorResult)
	for _, r := range results {
		byID[r.Doctor.ID] = r
	}

	if snap := byID["doc1"].Availability; snap == nil || !snap.IsOpen || snap.RemainingSlots != 1 {
		t.Fatalf("doc1 snapshot: %+v", snap)
	}
	if snap := byID["doc2"].Availability; snap == nil || snap.IsOpen {
		t.Fatalf("doc2 snapshot: %+v", snap)
	}
	if snap := byID["doc3"].Availability; snap == nil || snap.Exists {
		t.Fatalf("doc3 snapshot: %+v", snap)
	}
}

func TestAvailableDoctorsSkipsUndeclared(t *testing.T) {
	svc := testService()

	results, err := svc.AvailableDoctors(context.Background(), "2024-06-01")
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	ids := asIDSet(results)
	if len(ids) != 2 || !ids["doc1"] || !ids["doc2"] {
		t.Fatalf("unexpected results: %v", ids)
	}
}
