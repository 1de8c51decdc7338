package models

import (
	"time"

	"github.com/google/uuid"
)

// Passenger is the 1:1 passenger profile for a user with role=passenger
type Passenger struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	UserID                uuid.UUID  `json:"user_id" db:"user_id"`
	EmergencyContactName  NullString `json:"emergency_contact_name,omitempty" db:"emergency_contact_name"`
	EmergencyContactPhone NullString `json:"emergency_contact_phone,omitempty" db:"emergency_contact_phone"`
	MedicalNotes          NullString `json:"medical_notes,omitempty" db:"medical_notes"`
	DueDate               NullTime   `json:"due_date,omitempty" db:"due_date"`
	IsPregnant            bool       `json:"is_pregnant" db:"is_pregnant"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}
