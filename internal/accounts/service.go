package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"medibook-backend/internal/auth"
	"medibook-backend/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AvailabilityDeleter and AppointmentDeleter are the cascade hooks invoked
// when an account is removed.
type AvailabilityDeleter interface {
	DeleteForDoctor(ctx context.Context, doctorID string) (int64, error)
}

type AppointmentDeleter interface {
	DeleteByDoctor(ctx context.Context, doctorID string) (int64, error)
	DeleteByPatient(ctx context.Context, patientID string) (int64, error)
}

type RegisterRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         string `json:"role" validate:"omitempty,oneof=patient doctor admin"`
	ProfileImage string `json:"profileImage"`
	Specialty    string `json:"specialty"`
	Bio          string `json:"bio"`
	State        string `json:"state"`
	City         string `json:"city"`
	Pincode      string `json:"pincode"`
}

type Service struct {
	repo           Repository
	availabilities AvailabilityDeleter
	appointments   AppointmentDeleter
	tokens         *auth.Manager
	location       *time.Location
}

func NewService(repo Repository, availabilities AvailabilityDeleter, appointments AppointmentDeleter, tokens *auth.Manager, location *time.Location) *Service {
	return &Service{
		repo:           repo,
		availabilities: availabilities,
		appointments:   appointments,
		tokens:         tokens,
		location:       location,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.User, string, error) {
	role := req.Role
	if role == "" {
		role = models.RolePatient
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, "", err
	}

	user := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().In(s.location),
	}
	if role == models.RoleDoctor {
		user.ProfileImage = req.ProfileImage
		user.Specialty = req.Specialty
		user.Bio = req.Bio
		user.State = strings.TrimSpace(req.State)
		user.City = strings.TrimSpace(req.City)
		user.Pincode = strings.TrimSpace(req.Pincode)
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		return models.User{}, "", err
	}

	token, err := s.tokens.NewToken(user.ID, user.Role)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.NewToken(user.ID, user.Role)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) List(ctx context.Context, limit, offset int64) ([]models.User, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// DeleteCascade removes a user and their associated records: a doctor's
// availabilities and appointments, or a patient's appointments.
func (s *Service) DeleteCascade(ctx context.Context, id string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	switch user.Role {
	case models.RoleDoctor:
		if _, err := s.availabilities.DeleteForDoctor(ctx, id); err != nil {
			return err
		}
		if _, err := s.appointments.DeleteByDoctor(ctx, id); err != nil {
			return err
		}
	case models.RolePatient:
		if _, err := s.appointments.DeleteByPatient(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
