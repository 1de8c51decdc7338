package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
	"github.com/moms2go/ride-backend/pkg/mailer"
)

// RideService owns the ride lifecycle: booking, per-role status updates and
// ride retrieval with ownership checks
type RideService struct {
	rideRepo      *database.RideRepository
	requestRepo   *database.RideRequestRepository
	passengerRepo *database.PassengerRepository
	driverRepo    *database.DriverRepository
	userRepo      *database.UserRepository
	fare          *FareService
	matching      *MatchingService
	rating        *RatingService
	notifier      *NotificationService
	mail          *mailer.Mailer
	logger        *logrus.Logger
}

// NewRideService creates a new RideService
func NewRideService(
	rideRepo *database.RideRepository,
	requestRepo *database.RideRequestRepository,
	passengerRepo *database.PassengerRepository,
	driverRepo *database.DriverRepository,
	userRepo *database.UserRepository,
	fare *FareService,
	matching *MatchingService,
	rating *RatingService,
	notifier *NotificationService,
	mail *mailer.Mailer,
	logger *logrus.Logger,
) *RideService {
	return &RideService{
		rideRepo:      rideRepo,
		requestRepo:   requestRepo,
		passengerRepo: passengerRepo,
		driverRepo:    driverRepo,
		userRepo:      userRepo,
		fare:          fare,
		matching:      matching,
		rating:        rating,
		notifier:      notifier,
		mail:          mail,
		logger:        logger,
	}
}

// BookResult is what the passenger gets back from booking
type BookResult struct {
	Ride            *models.Ride `json:"ride"`
	DriversNotified int          `json:"drivers_notified"`
}

// Book creates a ride for the calling passenger, computes the fare up front
// and fans the ride out to eligible drivers. The ride stands even when zero
// drivers could be notified.
func (s *RideService) Book(passengerUserID uuid.UUID, req *models.CreateRideRequest) (*BookResult, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	passenger, err := s.passengerRepo.GetByUserID(passengerUserID)
	if err != nil {
		return nil, err
	}

	distance, fareAmount := s.fare.Estimate(
		req.PickupLatitude, req.PickupLongitude,
		req.DestinationLatitude, req.DestinationLongitude,
		req.IsEmergency,
	)

	ride := &models.Ride{
		PassengerID:          passenger.ID,
		PickupAddress:        req.PickupAddress,
		PickupLatitude:       req.PickupLatitude,
		PickupLongitude:      req.PickupLongitude,
		DestinationAddress:   req.DestinationAddress,
		DestinationLatitude:  req.DestinationLatitude,
		DestinationLongitude: req.DestinationLongitude,
		FareAmount:           fareAmount,
		Distance:             distance,
		IsEmergency:          req.IsEmergency,
	}
	if req.ScheduledTime != nil {
		ride.ScheduledTime = models.NewNullTime(*req.ScheduledTime)
	}
	if req.Notes != "" {
		ride.Notes = models.NewNullString(req.Notes)
	}

	if err := s.rideRepo.Create(ride); err != nil {
		return nil, err
	}

	notified, err := s.matching.FanOut(ride)
	if err != nil {
		// The booking stands; matching can be retried out of band.
		s.logger.WithError(err).WithField("ride_id", ride.ID).Error("Driver fan-out failed")
	}

	s.sendBookingEmail(passengerUserID, ride)

	return &BookResult{Ride: ride, DriversNotified: notified}, nil
}

func (s *RideService) sendBookingEmail(passengerUserID uuid.UUID, ride *models.Ride) {
	user, err := s.userRepo.GetByID(passengerUserID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load passenger user for booking email")
		return
	}

	scheduled := ride.CreatedAt
	if ride.ScheduledTime.Valid {
		scheduled = ride.ScheduledTime.Time
	}

	email := mailer.RideBooked(user.Email, mailer.RideBookedData{
		PassengerName:      user.Name,
		PickupAddress:      ride.PickupAddress,
		DestinationAddress: ride.DestinationAddress,
		ScheduledTime:      scheduled,
		FareAmount:         ride.FareAmount,
	})
	if err := s.mail.Send(email); err != nil {
		s.logger.WithError(err).Info("Skipping booking confirmation email")
	}
}

// Get retrieves a ride the caller is allowed to see: the owning passenger,
// the assigned or offered driver, or an admin
func (s *RideService) Get(rideID, userID uuid.UUID, role string) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(rideID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ride, userID, role); err != nil {
		return nil, err
	}

	return ride, nil
}

func (s *RideService) authorize(ride *models.Ride, userID uuid.UUID, role string) error {
	switch role {
	case models.RoleAdmin:
		return nil

	case models.RolePassenger:
		passenger, err := s.passengerRepo.GetByUserID(userID)
		if err != nil {
			return err
		}
		if passenger.ID != ride.PassengerID {
			return ErrForbidden
		}
		return nil

	case models.RoleDriver:
		driver, err := s.driverRepo.GetByUserID(userID)
		if err != nil {
			return err
		}
		if ride.DriverID.Valid && ride.DriverID.UUID == driver.ID {
			return nil
		}
		// A driver holding an open offer may inspect the ride before
		// deciding to accept it.
		if _, err := s.requestRepo.GetPending(ride.ID, driver.ID); err == nil {
			return nil
		}
		return ErrForbidden
	}

	return ErrForbidden
}

// ListForPassenger returns the calling passenger's ride history
func (s *RideService) ListForPassenger(userID uuid.UUID) ([]models.PassengerRideView, error) {
	passenger, err := s.passengerRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.rideRepo.ListByPassenger(passenger.ID)
}

// ListForDriver returns the calling driver's ride history
func (s *RideService) ListForDriver(userID uuid.UUID, limit int) ([]models.DriverRideView, error) {
	driver, err := s.driverRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.rideRepo.ListByDriver(driver.ID, limit)
}

// ListAll returns every ride. Admin only; the handler enforces the role.
func (s *RideService) ListAll() ([]models.Ride, error) {
	return s.rideRepo.ListAll()
}

// ApplyDriverUpdate advances the ride through the driver-owned transitions:
// accepted -> in_progress -> completed, or cancellation. Only the assigned
// driver may call this; every transition is a conditional update so a stale
// client gets ErrConflict instead of clobbering state.
func (s *RideService) ApplyDriverUpdate(rideID, driverUserID uuid.UUID, update *models.DriverRideUpdate) (*models.Ride, error) {
	if err := update.Validate(); err != nil {
		return nil, validationError(err)
	}

	driver, err := s.driverRepo.GetByUserID(driverUserID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(rideID)
	if err != nil {
		return nil, err
	}
	if !ride.DriverID.Valid || ride.DriverID.UUID != driver.ID {
		return nil, fmt.Errorf("ride is not assigned to this driver: %w", ErrForbidden)
	}

	now := time.Now()
	switch *update.Status {
	case models.RideInProgress:
		pickup := update.ActualPickupTime
		if pickup == nil {
			pickup = &now
		}
		if err := s.rideRepo.UpdateStatus(rideID, models.RideAccepted, models.RideInProgress, pickup, nil); err != nil {
			return nil, err
		}

	case models.RideCompleted:
		dropoff := update.ActualDropoffTime
		if dropoff == nil {
			dropoff = &now
		}
		if err := s.rideRepo.UpdateStatus(rideID, models.RideInProgress, models.RideCompleted, nil, dropoff); err != nil {
			return nil, err
		}
		s.finishRide(driver.ID)

	case models.RideCancelled:
		// Cancellation is only reachable before the trip starts; a driver
		// already in progress gets a conflict. Clearing driver_id keeps the
		// assignment tied to the active statuses.
		if err := s.rideRepo.Cancel(rideID, models.RideAccepted); err != nil {
			return nil, err
		}
		s.releaseDriver(driver.ID)
	}

	updated, err := s.rideRepo.GetByID(rideID)
	if err != nil {
		return nil, err
	}

	s.notifyPassengerOfUpdate(updated)

	return updated, nil
}

// finishRide releases the driver and refreshes their aggregate stats after
// a completion
func (s *RideService) finishRide(driverID uuid.UUID) {
	s.releaseDriver(driverID)

	if err := s.rating.RecomputeStats(driverID); err != nil {
		s.logger.WithError(err).WithField("driver_id", driverID).Error("Failed to refresh driver stats")
	}
}

func (s *RideService) releaseDriver(driverID uuid.UUID) {
	if err := s.driverRepo.UpdateStatus(driverID, models.DriverBusy, models.DriverAvailable); err != nil {
		// The driver may have gone offline in the meantime; nothing to fix.
		s.logger.WithError(err).WithField("driver_id", driverID).Warn("Driver not released to available")
	}
}

func (s *RideService) notifyPassengerOfUpdate(ride *models.Ride) {
	passenger, err := s.passengerRepo.GetByID(ride.PassengerID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load passenger for status notification")
		return
	}

	s.notifier.Notify(passenger.UserID, models.NotifyRideUpdate,
		models.NotificationData{Status: string(ride.Status)},
		uuid.NullUUID{UUID: ride.ID, Valid: true})
}

// ApplyAdminUpdate force-sets ride fields without state-machine checks
func (s *RideService) ApplyAdminUpdate(rideID uuid.UUID, update *models.AdminRideUpdate) (*models.Ride, error) {
	if err := s.rideRepo.ApplyAdminUpdate(rideID, update); err != nil {
		return nil, err
	}
	return s.rideRepo.GetByID(rideID)
}
