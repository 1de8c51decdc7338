package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
)

// PaymentService initiates ride payments through Stripe and applies webhook
// outcomes to the payment records
type PaymentService struct {
	paymentRepo   *database.PaymentRepository
	rideRepo      *database.RideRepository
	passengerRepo *database.PassengerRepository
	stripe        *StripeService
	notifier      *NotificationService
	logger        *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo *database.PaymentRepository,
	rideRepo *database.RideRepository,
	passengerRepo *database.PassengerRepository,
	stripe *StripeService,
	notifier *NotificationService,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:   paymentRepo,
		rideRepo:      rideRepo,
		passengerRepo: passengerRepo,
		stripe:        stripe,
		notifier:      notifier,
		logger:        logger,
	}
}

// IntentResult is what the client needs to confirm the payment
type IntentResult struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	ClientSecret string    `json:"client_secret"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
}

// CreateIntent starts a payment for the caller's completed ride. The
// charged amount is the fare stored on the ride, not the client's number. A
// failed or abandoned earlier attempt is re-pointed at the fresh intent;
// a completed payment is a conflict.
func (s *PaymentService) CreateIntent(passengerUserID uuid.UUID, req *models.CreateIntentRequest) (*IntentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	passenger, err := s.passengerRepo.GetByUserID(passengerUserID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.PassengerID != passenger.ID {
		return nil, fmt.Errorf("ride belongs to another passenger: %w", ErrForbidden)
	}
	if ride.Status != models.RideCompleted {
		return nil, fmt.Errorf("ride is not completed: %w", database.ErrConflict)
	}
	// The charged amount is always the fare stored on the ride; a client
	// quoting a different number is a stale or tampered request.
	if math.Abs(req.Amount-ride.FareAmount) >= 0.005 {
		return nil, validationError(fmt.Errorf("amount does not match the ride fare"))
	}

	existing, err := s.paymentRepo.GetByRideID(ride.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == models.PaymentCompleted {
		return nil, fmt.Errorf("ride is already paid: %w", database.ErrConflict)
	}

	amountCents := int64(math.Round(ride.FareAmount * 100))
	intent, err := s.stripe.CreatePaymentIntent(amountCents, req.Currency, map[string]string{
		"ride_id":      ride.ID.String(),
		"passenger_id": passenger.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	result := &IntentResult{
		ClientSecret: intent.ClientSecret,
		Amount:       ride.FareAmount,
		Currency:     req.Currency,
	}

	if existing != nil {
		if err := s.paymentRepo.Reset(existing.ID, ride.FareAmount, req.Currency, intent.ID); err != nil {
			return nil, err
		}
		result.PaymentID = existing.ID
		return result, nil
	}

	payment := &models.Payment{
		RideID:                ride.ID,
		Amount:                ride.FareAmount,
		Currency:              req.Currency,
		StripePaymentIntentID: models.NewNullString(intent.ID),
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	result.PaymentID = payment.ID
	return result, nil
}

// HandleIntentSucceeded applies a payment_intent.succeeded event. The
// conditional update in the repository makes redelivery a no-op, so the
// success notification goes out exactly once.
func (s *PaymentService) HandleIntentSucceeded(intentID string) error {
	payment, err := s.paymentRepo.MarkCompleted(intentID)
	if errors.Is(err, database.ErrConflict) {
		s.logger.WithField("intent_id", intentID).Info("Duplicate webhook delivery ignored")
		return nil
	}
	if err != nil {
		return err
	}

	s.notifyPassenger(payment, models.NotifyPaymentSuccess)
	return nil
}

// HandleIntentFailed applies a payment_intent.payment_failed event
func (s *PaymentService) HandleIntentFailed(intentID string) error {
	payment, err := s.paymentRepo.MarkFailed(intentID)
	if errors.Is(err, database.ErrConflict) {
		s.logger.WithField("intent_id", intentID).Info("Stale failure webhook ignored")
		return nil
	}
	if err != nil {
		return err
	}

	s.notifyPassenger(payment, models.NotifyPaymentFailed)
	return nil
}

func (s *PaymentService) notifyPassenger(payment *models.Payment, kind models.NotificationType) {
	ride, err := s.rideRepo.GetByID(payment.RideID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load ride for payment notification")
		return
	}
	passenger, err := s.passengerRepo.GetByID(ride.PassengerID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load passenger for payment notification")
		return
	}

	s.notifier.Notify(passenger.UserID, kind,
		models.NotificationData{Amount: payment.Amount},
		uuid.NullUUID{UUID: ride.ID, Valid: true})
}
