package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User roles. Role is fixed at signup; there is no role-migration flow.
const (
	RolePassenger = "passenger"
	RoleDriver    = "driver"
	RoleAdmin     = "admin"
)

// User represents an identity record in the users table
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	Phone        NullString `json:"phone,omitempty" db:"phone"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose
	Role         string     `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// SignupRequest is the registration payload for both roles
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`

	// Passenger profile fields
	EmergencyContactName  string     `json:"emergency_contact_name"`
	EmergencyContactPhone string     `json:"emergency_contact_phone"`
	IsPregnant            *bool      `json:"is_pregnant"`
	DueDate               *time.Time `json:"due_date"`

	// Driver profile fields
	LicenseNumber string `json:"license_number"`
	VehicleMake   string `json:"vehicle_make"`
	VehicleModel  string `json:"vehicle_model"`
	VehicleYear   int    `json:"vehicle_year"`
	VehiclePlate  string `json:"vehicle_plate"`
	VehicleColor  string `json:"vehicle_color"`
}

// Validate checks the signup payload
func (r *SignupRequest) Validate() error {
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	switch r.Role {
	case RolePassenger:
		// Emergency contact is optional at signup
	case RoleDriver:
		if r.LicenseNumber == "" {
			return fmt.Errorf("license_number is required for drivers")
		}
		if r.VehicleMake == "" || r.VehicleModel == "" || r.VehiclePlate == "" || r.VehicleColor == "" {
			return fmt.Errorf("vehicle details are required for drivers")
		}
		if r.VehicleYear < 1990 {
			return fmt.Errorf("vehicle_year must be 1990 or later")
		}
	default:
		return fmt.Errorf("role must be passenger or driver")
	}
	return nil
}

// SigninRequest is the credential payload
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
