package services

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
	"github.com/moms2go/ride-backend/pkg/mailer"
)

func newRideService(db *mockDatabase) *RideService {
	logger := logrus.New()
	rideRepo := database.NewRideRepository(db)
	requestRepo := database.NewRideRequestRepository(db)
	passengerRepo := database.NewPassengerRepository(db)
	driverRepo := database.NewDriverRepository(db)
	notifier := NewNotificationService(database.NewNotificationRepository(db), logger)

	return NewRideService(
		rideRepo,
		requestRepo,
		passengerRepo,
		driverRepo,
		database.NewUserRepository(db),
		NewFareService(testFareConfig()),
		NewMatchingService(driverRepo, requestRepo, notifier, logger),
		NewRatingService(rideRepo, driverRepo, passengerRepo, logger),
		notifier,
		mailer.New(mailer.Config{}),
		logger,
	)
}

// rideStateRow builds a ride row in an arbitrary lifecycle state. driverID
// is nil for unassigned rides, a uuid string otherwise.
func rideStateRow(rideID, passengerID uuid.UUID, driverID interface{}, status string) []driver.Value {
	now := time.Now()
	return []driver.Value{
		rideID.String(), passengerID.String(), driverID, "100 Main St", 40.7128,
		-74.0060, "Mercy Hospital", 40.7580,
		-73.9855, nil, nil,
		nil, status, 17.50, 5.0, nil,
		false, nil, nil, now, now,
	}
}

func TestApplyDriverUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newRideService(&mockDatabase{db: db})
	driverUserID := uuid.New()
	driverID := uuid.New()
	passengerID := uuid.New()
	now := time.Now()

	t.Run("Start the trip", func(t *testing.T) {
		rideID := uuid.New()
		pickup := time.Now()
		status := models.RideInProgress

		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "busy", true))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(rideStateRow(rideID, passengerID, driverID.String(), "accepted")...))
		mock.ExpectExec(`UPDATE rides SET status`).
			WithArgs(rideID, models.RideAccepted, models.RideInProgress, pickup, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(rideStateRow(rideID, passengerID, driverID.String(), "in_progress")...))
		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE id`).
			WithArgs(passengerID).
			WillReturnRows(passengerRows(passengerID, uuid.New()))
		mock.ExpectQuery(`INSERT INTO notifications`).
			WillReturnRows(sqlmock.NewRows([]string{"is_read", "created_at"}).AddRow(false, now))

		updated, err := svc.ApplyDriverUpdate(rideID, driverUserID, &models.DriverRideUpdate{
			Status:           &status,
			ActualPickupTime: &pickup,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RideInProgress, updated.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Complete the trip releases the driver and refreshes stats", func(t *testing.T) {
		rideID := uuid.New()
		dropoff := time.Now()
		status := models.RideCompleted

		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "busy", true))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(rideStateRow(rideID, passengerID, driverID.String(), "in_progress")...))
		mock.ExpectExec(`UPDATE rides SET status`).
			WithArgs(rideID, models.RideInProgress, models.RideCompleted, nil, dropoff).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE drivers SET status`).
			WithArgs(driverID, models.DriverBusy, models.DriverAvailable).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM rides`).
			WithArgs(driverID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(completedRideRow(driverID, int64(5))...))
		mock.ExpectExec(`UPDATE drivers SET rating`).
			WithArgs(driverID, 5.0, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(rideStateRow(rideID, passengerID, driverID.String(), "completed")...))
		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE id`).
			WithArgs(passengerID).
			WillReturnRows(passengerRows(passengerID, uuid.New()))
		mock.ExpectQuery(`INSERT INTO notifications`).
			WillReturnRows(sqlmock.NewRows([]string{"is_read", "created_at"}).AddRow(false, now))

		updated, err := svc.ApplyDriverUpdate(rideID, driverUserID, &models.DriverRideUpdate{
			Status:            &status,
			ActualDropoffTime: &dropoff,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RideCompleted, updated.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cancellation clears the driver assignment", func(t *testing.T) {
		rideID := uuid.New()
		status := models.RideCancelled

		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "busy", true))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(rideStateRow(rideID, passengerID, driverID.String(), "accepted")...))
		mock.ExpectExec(`UPDATE rides SET status = 'cancelled', driver_id = NULL`).
			WithArgs(rideID, models.RideAccepted).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE drivers SET status`).
			WithArgs(driverID, models.DriverBusy, models.DriverAvailable).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(rideStateRow(rideID, passengerID, nil, "cancelled")...))
		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE id`).
			WithArgs(passengerID).
			WillReturnRows(passengerRows(passengerID, uuid.New()))
		mock.ExpectQuery(`INSERT INTO notifications`).
			WillReturnRows(sqlmock.NewRows([]string{"is_read", "created_at"}).AddRow(false, now))

		updated, err := svc.ApplyDriverUpdate(rideID, driverUserID, &models.DriverRideUpdate{
			Status: &status,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RideCancelled, updated.Status)
		assert.False(t, updated.DriverID.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cancelling mid-trip is a conflict", func(t *testing.T) {
		rideID := uuid.New()
		status := models.RideCancelled

		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "busy", true))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(rideStateRow(rideID, passengerID, driverID.String(), "in_progress")...))
		mock.ExpectExec(`UPDATE rides SET status = 'cancelled', driver_id = NULL`).
			WithArgs(rideID, models.RideAccepted).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := svc.ApplyDriverUpdate(rideID, driverUserID, &models.DriverRideUpdate{
			Status: &status,
		})
		assert.ErrorIs(t, err, database.ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Another driver's ride is forbidden", func(t *testing.T) {
		rideID := uuid.New()
		status := models.RideInProgress

		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "busy", true))
		mock.ExpectQuery(`SELECT (.+) FROM rides WHERE id`).
			WithArgs(rideID).
			WillReturnRows(sqlmock.NewRows(completedRideColumns()).
				AddRow(rideStateRow(rideID, passengerID, uuid.New().String(), "accepted")...))

		_, err := svc.ApplyDriverUpdate(rideID, driverUserID, &models.DriverRideUpdate{
			Status: &status,
		})
		assert.ErrorIs(t, err, ErrForbidden)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
