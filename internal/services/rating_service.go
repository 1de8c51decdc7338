package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
)

// RatingService records passenger ratings and keeps each driver's aggregate
// rating and ride count in sync with their completed rides
type RatingService struct {
	rideRepo      *database.RideRepository
	driverRepo    *database.DriverRepository
	passengerRepo *database.PassengerRepository
	logger        *logrus.Logger
}

// NewRatingService creates a new RatingService
func NewRatingService(
	rideRepo *database.RideRepository,
	driverRepo *database.DriverRepository,
	passengerRepo *database.PassengerRepository,
	logger *logrus.Logger,
) *RatingService {
	return &RatingService{
		rideRepo:      rideRepo,
		driverRepo:    driverRepo,
		passengerRepo: passengerRepo,
		logger:        logger,
	}
}

// RateRide stores the passenger's rating for their completed ride and
// refreshes the driver's aggregates. Rating an unfinished or already-rated
// ride is a conflict.
func (s *RatingService) RateRide(rideID, passengerUserID uuid.UUID, update *models.PassengerRideUpdate) (*models.Ride, error) {
	if err := update.Validate(); err != nil {
		return nil, validationError(err)
	}

	passenger, err := s.passengerRepo.GetByUserID(passengerUserID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(rideID)
	if err != nil {
		return nil, err
	}
	if ride.PassengerID != passenger.ID {
		return nil, fmt.Errorf("ride belongs to another passenger: %w", ErrForbidden)
	}

	if err := s.rideRepo.SetRating(rideID, *update.Rating, update.Feedback); err != nil {
		return nil, err
	}

	if ride.DriverID.Valid {
		if err := s.RecomputeStats(ride.DriverID.UUID); err != nil {
			s.logger.WithError(err).WithField("driver_id", ride.DriverID.UUID).
				Error("Failed to refresh driver stats after rating")
		}
	}

	return s.rideRepo.GetByID(rideID)
}

// RecomputeStats recalculates a driver's aggregate rating and total ride
// count from their completed rides. The average covers rated rides only,
// rounded to one decimal; the count covers all completed rides. With zero
// rated rides the stored rating is left untouched.
func (s *RatingService) RecomputeStats(driverID uuid.UUID) error {
	rides, err := s.rideRepo.ListCompletedByDriver(driverID)
	if err != nil {
		return err
	}

	totalRides := len(rides)

	var sum int64
	rated := 0
	for _, ride := range rides {
		if ride.Rating.Valid {
			sum += ride.Rating.Int64
			rated++
		}
	}

	if rated == 0 {
		return s.driverRepo.UpdateStats(driverID, nil, totalRides)
	}

	avg := math.Round(float64(sum)/float64(rated)*10) / 10
	return s.driverRepo.UpdateStats(driverID, &avg, totalRides)
}
