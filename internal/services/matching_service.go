package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
)

// maxFanOut caps how many drivers are offered a single ride
const maxFanOut = 10

// MatchingService fans a new ride out to eligible drivers. One ride_request
// row is created per candidate; the acceptance path later resolves the race
// between them.
type MatchingService struct {
	driverRepo  *database.DriverRepository
	requestRepo *database.RideRequestRepository
	notifier    *NotificationService
	logger      *logrus.Logger
}

// NewMatchingService creates a new MatchingService
func NewMatchingService(
	driverRepo *database.DriverRepository,
	requestRepo *database.RideRequestRepository,
	notifier *NotificationService,
	logger *logrus.Logger,
) *MatchingService {
	return &MatchingService{
		driverRepo:  driverRepo,
		requestRepo: requestRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// FanOut offers the ride to up to maxFanOut approved, available drivers and
// returns how many were notified. Zero candidates is not an error: the ride
// stays pending and can be re-matched later. A failed request insert skips
// that driver and continues with the rest.
func (s *MatchingService) FanOut(ride *models.Ride) (int, error) {
	drivers, err := s.driverRepo.ListEligible(maxFanOut)
	if err != nil {
		return 0, fmt.Errorf("failed to find candidate drivers: %w", err)
	}

	data := models.NotificationData{
		PickupAddress:      ride.PickupAddress,
		DestinationAddress: ride.DestinationAddress,
		IsEmergency:        ride.IsEmergency,
	}
	rideRef := uuid.NullUUID{UUID: ride.ID, Valid: true}

	notified := 0
	for _, driver := range drivers {
		req := &models.RideRequest{RideID: ride.ID, DriverID: driver.ID}
		if err := s.requestRepo.Create(req); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"ride_id":   ride.ID,
				"driver_id": driver.ID,
			}).Error("Failed to create ride request")
			continue
		}

		s.notifier.Notify(driver.UserID, models.NotifyRideRequest, data, rideRef)
		notified++
	}

	if notified == 0 {
		s.logger.WithField("ride_id", ride.ID).Warn("No available drivers for ride")
	}

	return notified, nil
}
