package services

import (
	"github.com/google/uuid"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
)

// TrackingInfo is the live view of a ride for the tracking endpoint
type TrackingInfo struct {
	RideID             uuid.UUID         `json:"ride_id"`
	Status             models.RideStatus `json:"status"`
	DriverLatitude     *float64          `json:"driver_latitude,omitempty"`
	DriverLongitude    *float64          `json:"driver_longitude,omitempty"`
	EstimatedMinutes   *int              `json:"estimated_minutes,omitempty"`
	PickupAddress      string            `json:"pickup_address"`
	DestinationAddress string            `json:"destination_address"`
}

// TrackingService serves live ride position and arrival estimates
type TrackingService struct {
	rideRepo   *database.RideRepository
	driverRepo *database.DriverRepository
	fare       *FareService
	rides      *RideService
}

// NewTrackingService creates a new TrackingService
func NewTrackingService(
	rideRepo *database.RideRepository,
	driverRepo *database.DriverRepository,
	fare *FareService,
	rides *RideService,
) *TrackingService {
	return &TrackingService{
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
		fare:       fare,
		rides:      rides,
	}
}

// Track returns the ride status plus, when a driver is assigned and
// reporting a position, their coordinates and an arrival estimate. The
// estimate targets the destination once the ride is in progress.
func (s *TrackingService) Track(rideID, userID uuid.UUID, role string) (*TrackingInfo, error) {
	ride, err := s.rides.Get(rideID, userID, role)
	if err != nil {
		return nil, err
	}

	info := &TrackingInfo{
		RideID:             ride.ID,
		Status:             ride.Status,
		PickupAddress:      ride.PickupAddress,
		DestinationAddress: ride.DestinationAddress,
	}

	if !ride.DriverID.Valid {
		return info, nil
	}

	driver, err := s.driverRepo.GetByID(ride.DriverID.UUID)
	if err != nil {
		return nil, err
	}
	if !driver.CurrentLatitude.Valid || !driver.CurrentLongitude.Valid {
		return info, nil
	}

	lat := driver.CurrentLatitude.Float64
	lon := driver.CurrentLongitude.Float64
	info.DriverLatitude = &lat
	info.DriverLongitude = &lon

	switch ride.Status {
	case models.RideAccepted:
		eta := s.fare.ETAMinutes(lat, lon, ride.PickupLatitude, ride.PickupLongitude)
		info.EstimatedMinutes = &eta
	case models.RideInProgress:
		eta := s.fare.ETAMinutes(lat, lon, ride.DestinationLatitude, ride.DestinationLongitude)
		info.EstimatedMinutes = &eta
	}

	return info, nil
}

// ReportPosition stores the calling driver's live coordinates
func (s *TrackingService) ReportPosition(driverUserID uuid.UUID, lat, lon float64) error {
	driver, err := s.driverRepo.GetByUserID(driverUserID)
	if err != nil {
		return err
	}
	return s.driverRepo.UpdatePosition(driver.ID, lat, lon)
}
