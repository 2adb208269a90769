package models

import "time"

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"

	AppointmentStatusBooked    = "booked"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"

	PaymentStatusOffline = "offline"
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"

	// Fee in minor currency units (cents).
	DefaultConsultationFee = 5000
)

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	ProfileImage string    `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Specialty    string    `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Bio          string    `bson:"bio,omitempty" json:"bio,omitempty"`
	State        string    `bson:"state,omitempty" json:"state,omitempty"`
	City         string    `bson:"city,omitempty" json:"city,omitempty"`
	Pincode      string    `bson:"pincode,omitempty" json:"pincode,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Availability is a doctor's declared bookable window for one calendar date.
// Dates are "YYYY-MM-DD" strings and times "HH:MM", both in the configured
// local timezone; they are keys, not instants.
type Availability struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	DoctorID        string    `bson:"doctorId" json:"doctorId"`
	Date            string    `bson:"date" json:"date"`
	StartTime       string    `bson:"startTime" json:"startTime"`
	PatientDuration int       `bson:"patientDuration" json:"patientDuration"`
	TotalSlots      int       `bson:"totalSlots" json:"totalSlots"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

type Appointment struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	DoctorID         string    `bson:"doctorId" json:"doctorId"`
	PatientID        string    `bson:"patientId" json:"patientId"`
	Date             string    `bson:"date" json:"date"`
	Time             string    `bson:"time" json:"time"`
	Status           string    `bson:"status" json:"status"`
	ConsultationFee  int       `bson:"consultationFee" json:"consultationFee"`
	PaymentStatus    string    `bson:"paymentStatus" json:"paymentStatus"`
	PaymentReference string    `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}
