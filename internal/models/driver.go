package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DriverStatus is the driver's availability state
type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverBusy      DriverStatus = "busy"
	DriverOffline   DriverStatus = "offline"
)

// Valid reports whether s is a known driver status
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverAvailable, DriverBusy, DriverOffline:
		return true
	}
	return false
}

// Driver is the 1:1 driver profile for a user with role=driver
type Driver struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	UserID           uuid.UUID    `json:"user_id" db:"user_id"`
	LicenseNumber    string       `json:"license_number" db:"license_number"`
	VehicleMake      string       `json:"vehicle_make" db:"vehicle_make"`
	VehicleModel     string       `json:"vehicle_model" db:"vehicle_model"`
	VehicleYear      int          `json:"vehicle_year" db:"vehicle_year"`
	VehiclePlate     string       `json:"vehicle_plate" db:"vehicle_plate"`
	VehicleColor     string       `json:"vehicle_color" db:"vehicle_color"`
	CPRCertified     bool         `json:"cpr_certified" db:"cpr_certified"`
	BackgroundCheck  bool         `json:"background_check" db:"background_check"`
	Status           DriverStatus `json:"status" db:"status"`
	Rating           float64      `json:"rating" db:"rating"`
	TotalRides       int          `json:"total_rides" db:"total_rides"`
	CurrentLatitude  NullFloat64  `json:"current_latitude,omitempty" db:"current_latitude"`
	CurrentLongitude NullFloat64  `json:"current_longitude,omitempty" db:"current_longitude"`
	IsApproved       bool         `json:"is_approved" db:"is_approved"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// DriverSelfUpdate enumerates the fields a driver may change on their own
// profile. Approval and certification flags are deliberately absent.
type DriverSelfUpdate struct {
	Status           *DriverStatus `json:"status"`
	CurrentLatitude  *float64      `json:"current_latitude"`
	CurrentLongitude *float64      `json:"current_longitude"`
}

// Validate checks the self-update payload
func (u *DriverSelfUpdate) Validate() error {
	if u.Status == nil && u.CurrentLatitude == nil && u.CurrentLongitude == nil {
		return fmt.Errorf("no fields to update")
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("status must be available, busy or offline")
	}
	if (u.CurrentLatitude == nil) != (u.CurrentLongitude == nil) {
		return fmt.Errorf("latitude and longitude must be provided together")
	}
	return nil
}

// AdminDriverUpdate enumerates the fields an admin may set on any driver
type AdminDriverUpdate struct {
	DriverID        uuid.UUID     `json:"driver_id"`
	IsApproved      *bool         `json:"is_approved"`
	CPRCertified    *bool         `json:"cpr_certified"`
	BackgroundCheck *bool         `json:"background_check"`
	Status          *DriverStatus `json:"status"`
}

// Validate checks the admin update payload
func (u *AdminDriverUpdate) Validate() error {
	if u.DriverID == uuid.Nil {
		return fmt.Errorf("driver_id is required")
	}
	if u.IsApproved == nil && u.CPRCertified == nil && u.BackgroundCheck == nil && u.Status == nil {
		return fmt.Errorf("no fields to update")
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("status must be available, busy or offline")
	}
	return nil
}

// AdminDriverView is a driver row joined with its user record, for the
// admin roster
type AdminDriverView struct {
	Driver
	Name  string     `json:"name" db:"name"`
	Email string     `json:"email" db:"email"`
	Phone NullString `json:"phone,omitempty" db:"phone"`
}

// AvailableDriverView is the limited projection passengers may see
type AvailableDriverView struct {
	ID           uuid.UUID `json:"id" db:"id"`
	VehicleMake  string    `json:"vehicle_make" db:"vehicle_make"`
	VehicleModel string    `json:"vehicle_model" db:"vehicle_model"`
	VehicleColor string    `json:"vehicle_color" db:"vehicle_color"`
	Rating       float64   `json:"rating" db:"rating"`
	TotalRides   int       `json:"total_rides" db:"total_rides"`
}
