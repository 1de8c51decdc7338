package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moms2go/ride-backend/internal/config"
	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
)

func newPaymentService(db *mockDatabase) *PaymentService {
	logger := logrus.New()
	return NewPaymentService(
		database.NewPaymentRepository(db),
		database.NewRideRepository(db),
		database.NewPassengerRepository(db),
		NewStripeService(config.StripeConfig{}, logger),
		NewNotificationService(database.NewNotificationRepository(db), logger),
		logger,
	)
}

func paymentRow(paymentID, rideID uuid.UUID, intentID, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "ride_id", "amount", "currency", "payment_method",
		"stripe_payment_intent_id", "status", "processed_at", "created_at",
	}).AddRow(paymentID.String(), rideID.String(), 17.50, "usd", nil, intentID, status, now, now)
}

func TestHandleIntentSucceeded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newPaymentService(&mockDatabase{db: db})
	intentID := "pi_123"

	t.Run("First delivery completes and notifies", func(t *testing.T) {
		paymentID := uuid.New()
		rideID := uuid.New()
		passengerID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`UPDATE payments`).
			WithArgs(intentID).
			WillReturnRows(paymentRow(paymentID, rideID, intentID, "completed"))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(ownedRideRow(rideID, passengerID, uuid.New(), int64(5))...))
		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE id`).
			WithArgs(passengerID).
			WillReturnRows(passengerRows(passengerID, uuid.New()))
		mock.ExpectQuery(`INSERT INTO notifications`).
			WillReturnRows(sqlmock.NewRows([]string{"is_read", "created_at"}).AddRow(false, now))

		err := svc.HandleIntentSucceeded(intentID)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Redelivery is acknowledged without a second notification", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE payments`).
			WithArgs(intentID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "ride_id", "amount", "currency", "payment_method",
				"stripe_payment_intent_id", "status", "processed_at", "created_at",
			}))

		err := svc.HandleIntentSucceeded(intentID)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHandleIntentFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newPaymentService(&mockDatabase{db: db})
	intentID := "pi_456"

	t.Run("Stale failure after completion is ignored", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE payments`).
			WithArgs(intentID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "ride_id", "amount", "currency", "payment_method",
				"stripe_payment_intent_id", "status", "processed_at", "created_at",
			}))

		err := svc.HandleIntentFailed(intentID)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateIntentPreconditions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newPaymentService(&mockDatabase{db: db})

	t.Run("Missing ride id is rejected", func(t *testing.T) {
		_, err := svc.CreateIntent(uuid.New(), &models.CreateIntentRequest{Amount: 10, Currency: "usd"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Another passenger's ride is forbidden", func(t *testing.T) {
		callerUserID := uuid.New()
		rideID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE user_id`).
			WithArgs(callerUserID).
			WillReturnRows(passengerRows(uuid.New(), callerUserID))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(ownedRideRow(rideID, uuid.New(), uuid.New(), nil)...))

		_, err := svc.CreateIntent(callerUserID, &models.CreateIntentRequest{
			RideID: rideID, Amount: 17.50, Currency: "usd",
		})
		assert.ErrorIs(t, err, ErrForbidden)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Amount mismatch is rejected", func(t *testing.T) {
		callerUserID := uuid.New()
		passengerID := uuid.New()
		rideID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE user_id`).
			WithArgs(callerUserID).
			WillReturnRows(passengerRows(passengerID, callerUserID))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(ownedRideRow(rideID, passengerID, uuid.New(), nil)...))

		_, err := svc.CreateIntent(callerUserID, &models.CreateIntentRequest{
			RideID: rideID, Amount: 9.99, Currency: "usd",
		})
		assert.ErrorIs(t, err, ErrValidation)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unfinished ride is a conflict", func(t *testing.T) {
		callerUserID := uuid.New()
		passengerID := uuid.New()
		rideID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE user_id`).
			WithArgs(callerUserID).
			WillReturnRows(passengerRows(passengerID, callerUserID))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).AddRow(
				rideID.String(), passengerID.String(), uuid.New().String(), "100 Main St", 40.7128,
				-74.0060, "Mercy Hospital", 40.7580,
				-73.9855, nil, nil,
				nil, "in_progress", 17.50, 5.0, nil,
				false, nil, nil, now, now,
			))

		_, err := svc.CreateIntent(callerUserID, &models.CreateIntentRequest{
			RideID: rideID, Amount: 17.50, Currency: "usd",
		})
		assert.ErrorIs(t, err, database.ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
