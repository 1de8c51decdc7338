package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RideStatus is the ride lifecycle state
type RideStatus string

const (
	RidePending    RideStatus = "pending"
	RideAccepted   RideStatus = "accepted"
	RideInProgress RideStatus = "in_progress"
	RideCompleted  RideStatus = "completed"
	RideCancelled  RideStatus = "cancelled"
)

// RideRequestStatus is the per-driver offer state during the matching window
type RideRequestStatus string

const (
	RequestPending   RideRequestStatus = "pending"
	RequestAccepted  RideRequestStatus = "accepted"
	RequestCancelled RideRequestStatus = "cancelled"
)

// Ride is one passenger transportation request from creation to
// completion or cancellation. DriverID is null iff status is pending or
// cancelled; FareAmount is computed once at creation and never recomputed.
type Ride struct {
	ID                   uuid.UUID     `json:"id" db:"id"`
	PassengerID          uuid.UUID     `json:"passenger_id" db:"passenger_id"`
	DriverID             uuid.NullUUID `json:"driver_id,omitempty" db:"driver_id"`
	PickupAddress        string        `json:"pickup_address" db:"pickup_address"`
	PickupLatitude       float64       `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude      float64       `json:"pickup_longitude" db:"pickup_longitude"`
	DestinationAddress   string        `json:"destination_address" db:"destination_address"`
	DestinationLatitude  float64       `json:"destination_latitude" db:"destination_latitude"`
	DestinationLongitude float64       `json:"destination_longitude" db:"destination_longitude"`
	ScheduledTime        NullTime      `json:"scheduled_time,omitempty" db:"scheduled_time"`
	ActualPickupTime     NullTime      `json:"actual_pickup_time,omitempty" db:"actual_pickup_time"`
	ActualDropoffTime    NullTime      `json:"actual_dropoff_time,omitempty" db:"actual_dropoff_time"`
	Status               RideStatus    `json:"status" db:"status"`
	FareAmount           float64       `json:"fare_amount" db:"fare_amount"`
	Distance             float64       `json:"distance" db:"distance"`
	Notes                NullString    `json:"notes,omitempty" db:"notes"`
	IsEmergency          bool          `json:"is_emergency" db:"is_emergency"`
	Rating               NullInt64     `json:"rating,omitempty" db:"rating"`
	Feedback             NullString    `json:"feedback,omitempty" db:"feedback"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// RideRequest is a fan-out record, one per (ride, candidate driver) pair.
// It exists only during the matching window; once a ride is accepted every
// sibling request flips to cancelled.
type RideRequest struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	RideID       uuid.UUID         `json:"ride_id" db:"ride_id"`
	DriverID     uuid.UUID         `json:"driver_id" db:"driver_id"`
	Status       RideRequestStatus `json:"status" db:"status"`
	ResponseTime NullTime          `json:"response_time,omitempty" db:"response_time"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// CreateRideRequest is the passenger's booking payload
type CreateRideRequest struct {
	PickupAddress        string     `json:"pickup_address"`
	PickupLatitude       float64    `json:"pickup_latitude"`
	PickupLongitude      float64    `json:"pickup_longitude"`
	DestinationAddress   string     `json:"destination_address"`
	DestinationLatitude  float64    `json:"destination_latitude"`
	DestinationLongitude float64    `json:"destination_longitude"`
	ScheduledTime        *time.Time `json:"scheduled_time"`
	Notes                string     `json:"notes"`
	IsEmergency          bool       `json:"is_emergency"`
}

// Validate checks the booking payload
func (r *CreateRideRequest) Validate() error {
	if r.PickupAddress == "" {
		return fmt.Errorf("pickup_address is required")
	}
	if r.DestinationAddress == "" {
		return fmt.Errorf("destination_address is required")
	}
	if err := validCoordinate(r.PickupLatitude, r.PickupLongitude); err != nil {
		return fmt.Errorf("pickup: %w", err)
	}
	if err := validCoordinate(r.DestinationLatitude, r.DestinationLongitude); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	return nil
}

func validCoordinate(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// DriverRideUpdate enumerates the fields the assigned driver may change
type DriverRideUpdate struct {
	Status            *RideStatus `json:"status"`
	ActualPickupTime  *time.Time  `json:"actual_pickup_time"`
	ActualDropoffTime *time.Time  `json:"actual_dropoff_time"`
}

// Validate checks the driver update payload
func (u *DriverRideUpdate) Validate() error {
	if u.Status == nil {
		return fmt.Errorf("status is required")
	}
	switch *u.Status {
	case RideInProgress, RideCompleted, RideCancelled:
		return nil
	}
	return fmt.Errorf("status must be in_progress, completed or cancelled")
}

// PassengerRideUpdate carries a rating and optional feedback for a
// completed ride
type PassengerRideUpdate struct {
	Rating   *int   `json:"rating"`
	Feedback string `json:"feedback"`
}

// Validate checks the rating payload
func (u *PassengerRideUpdate) Validate() error {
	if u.Rating == nil {
		return fmt.Errorf("rating is required")
	}
	if *u.Rating < 1 || *u.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// AdminRideUpdate lets an admin force-set any mutable ride field
type AdminRideUpdate struct {
	Status            *RideStatus `json:"status"`
	ActualPickupTime  *time.Time  `json:"actual_pickup_time"`
	ActualDropoffTime *time.Time  `json:"actual_dropoff_time"`
	Rating            *int        `json:"rating"`
	Feedback          *string     `json:"feedback"`
}

// PassengerRideView is a ride joined with its driver summary, for the
// passenger's ride history
type PassengerRideView struct {
	Ride
	DriverName   NullString `json:"driver_name,omitempty" db:"driver_name"`
	DriverPhone  NullString `json:"driver_phone,omitempty" db:"driver_phone"`
	VehicleMake  NullString `json:"vehicle_make,omitempty" db:"vehicle_make"`
	VehicleModel NullString `json:"vehicle_model,omitempty" db:"vehicle_model"`
	VehicleColor NullString `json:"vehicle_color,omitempty" db:"vehicle_color"`
	VehiclePlate NullString `json:"vehicle_plate,omitempty" db:"vehicle_plate"`
}

// DriverRideView is a ride joined with its passenger summary, for the
// driver's ride history
type DriverRideView struct {
	Ride
	PassengerName         NullString `json:"passenger_name,omitempty" db:"passenger_name"`
	PassengerPhone        NullString `json:"passenger_phone,omitempty" db:"passenger_phone"`
	EmergencyContactName  NullString `json:"emergency_contact_name,omitempty" db:"emergency_contact_name"`
	EmergencyContactPhone NullString `json:"emergency_contact_phone,omitempty" db:"emergency_contact_phone"`
}
