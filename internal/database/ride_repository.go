package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moms2go/ride-backend/internal/models"
)

const rideColumns = `id, passenger_id, driver_id, pickup_address, pickup_latitude,
	pickup_longitude, destination_address, destination_latitude,
	destination_longitude, scheduled_time, actual_pickup_time,
	actual_dropoff_time, status, fare_amount, distance, notes, is_emergency,
	rating, feedback, created_at, updated_at`

// RideRepository handles database operations for the rides table. All
// status mutations go through conditional updates keyed on the current
// status; the affected-row count is the only arbitration mechanism.
type RideRepository struct {
	db DB
}

// NewRideRepository creates a new RideRepository
func NewRideRepository(db DB) *RideRepository {
	return &RideRepository{db: db}
}

// Create inserts a new ride with status pending
func (r *RideRepository) Create(ride *models.Ride) error {
	query := `
		INSERT INTO rides (
			id, passenger_id, pickup_address, pickup_latitude, pickup_longitude,
			destination_address, destination_latitude, destination_longitude,
			scheduled_time, fare_amount, distance, notes, is_emergency
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING status, created_at, updated_at
	`

	if ride.ID == uuid.Nil {
		ride.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		ride.ID, ride.PassengerID, ride.PickupAddress, ride.PickupLatitude,
		ride.PickupLongitude, ride.DestinationAddress, ride.DestinationLatitude,
		ride.DestinationLongitude, ride.ScheduledTime, ride.FareAmount,
		ride.Distance, ride.Notes, ride.IsEmergency,
	).Scan(&ride.Status, &ride.CreatedAt, &ride.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	return nil
}

// GetByID retrieves a ride by ID
func (r *RideRepository) GetByID(rideID uuid.UUID) (*models.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return r.scanRide(r.db.QueryRow(query, rideID))
}

// UpdateStatus performs the conditional status transition. The update only
// succeeds when the ride is still in the expected state; otherwise the
// caller receives ErrConflict and nothing is written.
func (r *RideRepository) UpdateStatus(rideID uuid.UUID, expected, next models.RideStatus, pickupTime, dropoffTime *time.Time) error {
	query := `
		UPDATE rides
		SET status = $3,
			actual_pickup_time = COALESCE($4, actual_pickup_time),
			actual_dropoff_time = COALESCE($5, actual_dropoff_time),
			updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(query, rideID, expected, next, pickupTime, dropoffTime)
	if err != nil {
		return fmt.Errorf("failed to update ride status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ride not in %s state: %w", expected, ErrConflict)
	}

	return nil
}

// Cancel cancels a ride still in the expected state and clears the driver
// assignment, so a cancelled ride never keeps a driver attached. Same
// row-count arbitration as UpdateStatus.
func (r *RideRepository) Cancel(rideID uuid.UUID, expected models.RideStatus) error {
	query := `
		UPDATE rides
		SET status = 'cancelled', driver_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(query, rideID, expected)
	if err != nil {
		return fmt.Errorf("failed to cancel ride: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ride not in %s state: %w", expected, ErrConflict)
	}

	return nil
}

// ClaimForDriver atomically claims a pending ride for one driver. The
// conditional UPDATE on the rides row is the single serialization point:
// of N concurrent callers only the first finds status=pending, and the
// driver/request side-effects run in the same transaction only when that
// row count is 1. Returns the driver IDs whose sibling requests were
// cancelled, so the caller can notify them.
func (r *RideRepository) ClaimForDriver(rideID, driverID uuid.UUID) ([]uuid.UUID, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.Exec(
		`UPDATE rides SET driver_id = $2, status = 'accepted', updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		rideID, driverID,
	)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to claim ride: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if rows == 0 {
		// Another driver won the race, or the ride was cancelled.
		tx.Rollback()
		return nil, fmt.Errorf("ride is no longer available: %w", ErrConflict)
	}

	if _, err := tx.Exec(
		`UPDATE drivers SET status = 'busy', updated_at = NOW() WHERE id = $1`,
		driverID,
	); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to mark driver busy: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE ride_requests SET status = 'accepted', response_time = NOW()
		 WHERE ride_id = $1 AND driver_id = $2 AND status = 'pending'`,
		rideID, driverID,
	); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to accept ride request: %w", err)
	}

	loserRows, err := tx.Query(
		`UPDATE ride_requests SET status = 'cancelled', response_time = NOW()
		 WHERE ride_id = $1 AND status = 'pending'
		 RETURNING driver_id`,
		rideID,
	)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to cancel sibling requests: %w", err)
	}

	losers := []uuid.UUID{}
	for loserRows.Next() {
		var id uuid.UUID
		if err := loserRows.Scan(&id); err != nil {
			loserRows.Close()
			tx.Rollback()
			return nil, fmt.Errorf("failed to scan cancelled request: %w", err)
		}
		losers = append(losers, id)
	}
	if err := loserRows.Err(); err != nil {
		loserRows.Close()
		tx.Rollback()
		return nil, err
	}
	loserRows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ride claim: %w", err)
	}

	return losers, nil
}

// SetRating attaches a passenger rating to a completed, not-yet-rated ride
func (r *RideRepository) SetRating(rideID uuid.UUID, rating int, feedback string) error {
	query := `
		UPDATE rides
		SET rating = $2, feedback = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1 AND status = 'completed' AND rating IS NULL
	`

	result, err := r.db.Exec(query, rideID, rating, feedback)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ride is not completed or already rated: %w", ErrConflict)
	}

	return nil
}

// ApplyAdminUpdate force-sets mutable ride fields without state-machine
// checks. Admin only.
func (r *RideRepository) ApplyAdminUpdate(rideID uuid.UUID, update *models.AdminRideUpdate) error {
	query := `
		UPDATE rides
		SET status = COALESCE($2, status),
			actual_pickup_time = COALESCE($3, actual_pickup_time),
			actual_dropoff_time = COALESCE($4, actual_dropoff_time),
			rating = COALESCE($5, rating),
			feedback = COALESCE($6, feedback),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, rideID, update.Status, update.ActualPickupTime, update.ActualDropoffTime, update.Rating, update.Feedback)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ride not found: %w", ErrNotFound)
	}

	return nil
}

// ListByPassenger returns a passenger's rides with driver summaries,
// newest first
func (r *RideRepository) ListByPassenger(passengerID uuid.UUID) ([]models.PassengerRideView, error) {
	query := `
		SELECT r.id, r.passenger_id, r.driver_id, r.pickup_address, r.pickup_latitude,
		       r.pickup_longitude, r.destination_address, r.destination_latitude,
		       r.destination_longitude, r.scheduled_time, r.actual_pickup_time,
		       r.actual_dropoff_time, r.status, r.fare_amount, r.distance, r.notes,
		       r.is_emergency, r.rating, r.feedback, r.created_at, r.updated_at,
		       u.name, u.phone, d.vehicle_make, d.vehicle_model, d.vehicle_color,
		       d.vehicle_plate
		FROM rides r
		LEFT JOIN drivers d ON r.driver_id = d.id
		LEFT JOIN users u ON d.user_id = u.id
		WHERE r.passenger_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.db.Query(query, passengerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list passenger rides: %w", err)
	}
	defer rows.Close()

	views := []models.PassengerRideView{}
	for rows.Next() {
		var v models.PassengerRideView
		err := rows.Scan(
			&v.ID, &v.PassengerID, &v.DriverID, &v.PickupAddress, &v.PickupLatitude,
			&v.PickupLongitude, &v.DestinationAddress, &v.DestinationLatitude,
			&v.DestinationLongitude, &v.ScheduledTime, &v.ActualPickupTime,
			&v.ActualDropoffTime, &v.Status, &v.FareAmount, &v.Distance, &v.Notes,
			&v.IsEmergency, &v.Rating, &v.Feedback, &v.CreatedAt, &v.UpdatedAt,
			&v.DriverName, &v.DriverPhone, &v.VehicleMake, &v.VehicleModel,
			&v.VehicleColor, &v.VehiclePlate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride row: %w", err)
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

// ListByDriver returns a driver's rides with passenger summaries, newest
// first. Limit 0 means no limit.
func (r *RideRepository) ListByDriver(driverID uuid.UUID, limit int) ([]models.DriverRideView, error) {
	query := `
		SELECT r.id, r.passenger_id, r.driver_id, r.pickup_address, r.pickup_latitude,
		       r.pickup_longitude, r.destination_address, r.destination_latitude,
		       r.destination_longitude, r.scheduled_time, r.actual_pickup_time,
		       r.actual_dropoff_time, r.status, r.fare_amount, r.distance, r.notes,
		       r.is_emergency, r.rating, r.feedback, r.created_at, r.updated_at,
		       u.name, u.phone, p.emergency_contact_name, p.emergency_contact_phone
		FROM rides r
		LEFT JOIN passengers p ON r.passenger_id = p.id
		LEFT JOIN users u ON p.user_id = u.id
		WHERE r.driver_id = $1
		ORDER BY r.created_at DESC
	`
	args := []interface{}{driverID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver rides: %w", err)
	}
	defer rows.Close()

	views := []models.DriverRideView{}
	for rows.Next() {
		var v models.DriverRideView
		err := rows.Scan(
			&v.ID, &v.PassengerID, &v.DriverID, &v.PickupAddress, &v.PickupLatitude,
			&v.PickupLongitude, &v.DestinationAddress, &v.DestinationLatitude,
			&v.DestinationLongitude, &v.ScheduledTime, &v.ActualPickupTime,
			&v.ActualDropoffTime, &v.Status, &v.FareAmount, &v.Distance, &v.Notes,
			&v.IsEmergency, &v.Rating, &v.Feedback, &v.CreatedAt, &v.UpdatedAt,
			&v.PassengerName, &v.PassengerPhone, &v.EmergencyContactName,
			&v.EmergencyContactPhone,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride row: %w", err)
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

// ListAll returns every ride, newest first. Admin only.
func (r *RideRepository) ListAll() ([]models.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}
	defer rows.Close()

	return r.scanRides(rows)
}

// ListCompletedByDriver returns a driver's completed rides, used by the
// rating aggregator
func (r *RideRepository) ListCompletedByDriver(driverID uuid.UUID) ([]models.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides
		WHERE driver_id = $1 AND status = 'completed'
	`

	rows, err := r.db.Query(query, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed rides: %w", err)
	}
	defer rows.Close()

	return r.scanRides(rows)
}

func (r *RideRepository) scanRide(row scanner) (*models.Ride, error) {
	ride := &models.Ride{}

	err := row.Scan(
		&ride.ID, &ride.PassengerID, &ride.DriverID, &ride.PickupAddress,
		&ride.PickupLatitude, &ride.PickupLongitude, &ride.DestinationAddress,
		&ride.DestinationLatitude, &ride.DestinationLongitude, &ride.ScheduledTime,
		&ride.ActualPickupTime, &ride.ActualDropoffTime, &ride.Status,
		&ride.FareAmount, &ride.Distance, &ride.Notes, &ride.IsEmergency,
		&ride.Rating, &ride.Feedback, &ride.CreatedAt, &ride.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ride not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ride: %w", err)
	}

	return ride, nil
}

func (r *RideRepository) scanRides(rows *sql.Rows) ([]models.Ride, error) {
	rides := []models.Ride{}

	for rows.Next() {
		var ride models.Ride
		err := rows.Scan(
			&ride.ID, &ride.PassengerID, &ride.DriverID, &ride.PickupAddress,
			&ride.PickupLatitude, &ride.PickupLongitude, &ride.DestinationAddress,
			&ride.DestinationLatitude, &ride.DestinationLongitude, &ride.ScheduledTime,
			&ride.ActualPickupTime, &ride.ActualDropoffTime, &ride.Status,
			&ride.FareAmount, &ride.Distance, &ride.Notes, &ride.IsEmergency,
			&ride.Rating, &ride.Feedback, &ride.CreatedAt, &ride.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride row: %w", err)
		}
		rides = append(rides, ride)
	}

	return rides, rows.Err()
}
