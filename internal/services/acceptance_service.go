package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
	"github.com/moms2go/ride-backend/pkg/mailer"
)

// AcceptanceService resolves the first-acceptance-wins race. The actual
// arbitration happens inside RideRepository.ClaimForDriver; this layer does
// the precondition checks and the post-commit notifications.
type AcceptanceService struct {
	rideRepo      *database.RideRepository
	requestRepo   *database.RideRequestRepository
	driverRepo    *database.DriverRepository
	passengerRepo *database.PassengerRepository
	userRepo      *database.UserRepository
	notifier      *NotificationService
	mail          *mailer.Mailer
	logger        *logrus.Logger
}

// NewAcceptanceService creates a new AcceptanceService
func NewAcceptanceService(
	rideRepo *database.RideRepository,
	requestRepo *database.RideRequestRepository,
	driverRepo *database.DriverRepository,
	passengerRepo *database.PassengerRepository,
	userRepo *database.UserRepository,
	notifier *NotificationService,
	mail *mailer.Mailer,
	logger *logrus.Logger,
) *AcceptanceService {
	return &AcceptanceService{
		rideRepo:      rideRepo,
		requestRepo:   requestRepo,
		driverRepo:    driverRepo,
		passengerRepo: passengerRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		mail:          mail,
		logger:        logger,
	}
}

// Accept claims a pending ride for the calling driver. Exactly one of N
// concurrent callers succeeds; the rest get ErrConflict. On success the
// passenger is notified, every losing driver is notified, and the updated
// ride is returned.
func (s *AcceptanceService) Accept(rideID, driverUserID uuid.UUID) (*models.Ride, error) {
	driver, err := s.driverRepo.GetByUserID(driverUserID)
	if err != nil {
		return nil, err
	}
	if !driver.IsApproved {
		return nil, ErrDriverNotApproved
	}
	if driver.Status != models.DriverAvailable {
		return nil, ErrDriverNotAvailable
	}

	// The driver must hold an open offer for this ride.
	if _, err := s.requestRepo.GetPending(rideID, driver.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("no pending request for this ride: %w", ErrForbidden)
		}
		return nil, err
	}

	losers, err := s.rideRepo.ClaimForDriver(rideID, driver.ID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(rideID)
	if err != nil {
		return nil, err
	}

	s.notifyParticipants(ride, driver, losers)

	return ride, nil
}

// notifyParticipants runs after the claim transaction committed. Failures
// here are logged; the acceptance itself already stands.
func (s *AcceptanceService) notifyParticipants(ride *models.Ride, driver *models.Driver, losers []uuid.UUID) {
	rideRef := uuid.NullUUID{UUID: ride.ID, Valid: true}

	driverUser, err := s.userRepo.GetByID(driver.UserID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load driver user for notification")
		driverUser = &models.User{Name: "your driver"}
	}

	passenger, err := s.passengerRepo.GetByID(ride.PassengerID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load passenger for notification")
	} else {
		s.notifier.Notify(passenger.UserID, models.NotifyRideAccepted,
			models.NotificationData{DriverName: driverUser.Name}, rideRef)

		if passengerUser, err := s.userRepo.GetByID(passenger.UserID); err == nil {
			email := mailer.RideAccepted(passengerUser.Email, mailer.RideAcceptedData{
				PassengerName: passengerUser.Name,
				DriverName:    driverUser.Name,
				VehicleInfo:   fmt.Sprintf("%s %s (%s)", driver.VehicleMake, driver.VehicleModel, driver.VehicleColor),
			})
			if err := s.mail.Send(email); err != nil {
				s.logger.WithError(err).Info("Skipping ride-accepted email")
			}
		}
	}

	// Every driver whose sibling request was cancelled hears about it.
	loserUsers := make([]uuid.UUID, 0, len(losers))
	for _, loserID := range losers {
		loser, err := s.driverRepo.GetByID(loserID)
		if err != nil {
			s.logger.WithError(err).WithField("driver_id", loserID).
				Error("Failed to load losing driver for notification")
			continue
		}
		loserUsers = append(loserUsers, loser.UserID)
	}
	s.notifier.NotifyMany(loserUsers, models.NotifyRideUnavailable, models.NotificationData{}, rideRef)
}
