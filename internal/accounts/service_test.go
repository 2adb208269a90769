package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"medibook-backend/internal/auth"
	"medibook-backend/internal/models"
)

type fakeRepo struct {
	users []models.User
}

func (f *fakeRepo) Insert(ctx context.Context, user models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (f *fakeRepo) FindByID(ctx context.Context, id string) (models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, limit, offset int64) ([]models.User, int64, error) {
	return append([]models.User(nil), f.users...), int64(len(f.users)), nil
}

func (f *fakeRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type cascadeRecorder struct {
	availabilityDoctors []string
	appointmentDoctors  []string
	appointmentPatients []string
}

func (c *cascadeRecorder) DeleteForDoctor(ctx context.Context, doctorID string) (int64, error) {
	c.availabilityDoctors = append(c.availabilityDoctors, doctorID)
	return 1, nil
}

func (c *cascadeRecorder) DeleteByDoctor(ctx context.Context, doctorID string) (int64, error) {
	c.appointmentDoctors = append(c.appointmentDoctors, doctorID)
	return 1, nil
}

func (c *cascadeRecorder) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	c.appointmentPatients = append(c.appointmentPatients, patientID)
	return 1, nil
}

func testService() (*Service, *fakeRepo, *cascadeRecorder) {
	repo := &fakeRepo{}
	cascade := &cascadeRecorder{}
	tokens := &auth.Manager{Secret: []byte("test-secret"), TokenTTL: time.Hour, Issuer: "medibook-test"}
	return NewService(repo, cascade, cascade, tokens, time.UTC), repo, cascade
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := testService()

	user, token, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Asha Rao",
		Email:    "Asha@Example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	if user.Role != models.RolePatient {
		t.Fatalf("default role %q, want patient", user.Role)
	}
	if user.Email != "asha@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "correct-horse" {
		t.Fatalf("password stored in clear")
	}

	loggedIn, token, err := svc.Login(context.Background(), "ASHA@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID || token == "" {
		t.Fatalf("login mismatch")
	}

	if _, _, err := svc.Login(context.Background(), "asha@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := testService()

	req := RegisterRequest{Name: "A", Email: "a@example.com", Password: "password1"}
	if _, _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestDoctorFieldsOnlyForDoctors(t *testing.T) {
	svc, _, _ := testService()

	patient, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "P", Email: "p@example.com", Password: "password1",
		Specialty: "Cardiology", City: "Bangalore",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if patient.Specialty != "" || patient.City != "" {
		t.Fatalf("patient kept doctor fields: %+v", patient)
	}

	doctor, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "D", Email: "d@example.com", Password: "password1", Role: models.RoleDoctor,
		Specialty: "Cardiology", City: "Bangalore",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if doctor.Specialty != "Cardiology" || doctor.City != "Bangalore" {
		t.Fatalf("doctor lost profile fields: %+v", doctor)
	}
}

func TestDeleteCascade(t *testing.T) {
	svc, repo, cascade := testService()

	doctor, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "D", Email: "d@example.com", Password: "password1", Role: models.RoleDoctor,
	})
	if err != nil {
		t.Fatalf("register doctor: %v", err)
	}
	patient, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "P", Email: "p@example.com", Password: "password1",
	})
	if err != nil {
		t.Fatalf("register patient: %v", err)
	}

	if err := svc.DeleteCascade(context.Background(), doctor.ID); err != nil {
		t.Fatalf("delete doctor: %v", err)
	}
	if len(cascade.availabilityDoctors) != 1 || cascade.availabilityDoctors[0] != doctor.ID {
		t.Fatalf("availability cascade not invoked: %v", cascade.availabilityDoctors)
	}
	if len(cascade.appointmentDoctors) != 1 {
		t.Fatalf("appointment cascade not invoked for doctor")
	}

	if err := svc.DeleteCascade(context.Background(), patient.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	if len(cascade.appointmentPatients) != 1 || cascade.appointmentPatients[0] != patient.ID {
		t.Fatalf("appointment cascade not invoked for patient: %v", cascade.appointmentPatients)
	}

	if len(repo.users) != 0 {
		t.Fatalf("users remain: %d", len(repo.users))
	}

	if err := svc.DeleteCascade(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
