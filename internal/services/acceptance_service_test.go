package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/pkg/mailer"
)

func newAcceptanceService(db *mockDatabase) *AcceptanceService {
	logger := logrus.New()
	return NewAcceptanceService(
		database.NewRideRepository(db),
		database.NewRideRequestRepository(db),
		database.NewDriverRepository(db),
		database.NewPassengerRepository(db),
		database.NewUserRepository(db),
		NewNotificationService(database.NewNotificationRepository(db), logger),
		mailer.New(mailer.Config{}),
		logger,
	)
}

func TestAccept(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newAcceptanceService(&mockDatabase{db: db})

	rideID := uuid.New()
	driverID := uuid.New()
	driverUserID := uuid.New()

	t.Run("Unapproved driver is rejected", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "available", false))

		_, err := svc.Accept(rideID, driverUserID)
		assert.ErrorIs(t, err, ErrDriverNotApproved)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Busy driver is rejected", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "busy", true))

		_, err := svc.Accept(rideID, driverUserID)
		assert.ErrorIs(t, err, ErrDriverNotAvailable)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Driver without an open offer is forbidden", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "available", true))
		mock.ExpectQuery(`SELECT (.+) FROM ride_requests`).
			WithArgs(rideID, driverID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "ride_id", "driver_id", "status", "response_time", "created_at",
			}))

		_, err := svc.Accept(rideID, driverUserID)
		assert.ErrorIs(t, err, ErrForbidden)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Losing the race surfaces a conflict", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM drivers WHERE user_id`).
			WithArgs(driverUserID).
			WillReturnRows(driverRows(driverID, driverUserID, "available", true))
		mock.ExpectQuery(`SELECT (.+) FROM ride_requests`).
			WithArgs(rideID, driverID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "ride_id", "driver_id", "status", "response_time", "created_at",
			}).AddRow(uuid.New().String(), rideID.String(), driverID.String(), "pending", nil, now))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE rides SET driver_id`).
			WithArgs(rideID, driverID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := svc.Accept(rideID, driverUserID)
		assert.ErrorIs(t, err, database.ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
