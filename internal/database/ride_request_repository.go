package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/moms2go/ride-backend/internal/models"
)

// RideRequestRepository handles database operations for the ride_requests
// table, the per-driver fan-out records of the matching window
type RideRequestRepository struct {
	db DB
}

// NewRideRequestRepository creates a new RideRequestRepository
func NewRideRequestRepository(db DB) *RideRequestRepository {
	return &RideRequestRepository{db: db}
}

// Create inserts a pending request for one (ride, driver) pair
func (r *RideRequestRepository) Create(req *models.RideRequest) error {
	query := `
		INSERT INTO ride_requests (id, ride_id, driver_id)
		VALUES ($1, $2, $3)
		RETURNING status, created_at
	`

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	err := r.db.QueryRow(query, req.ID, req.RideID, req.DriverID).
		Scan(&req.Status, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ride request: %w", err)
	}

	return nil
}

// GetPending retrieves the pending request for a (ride, driver) pair
func (r *RideRequestRepository) GetPending(rideID, driverID uuid.UUID) (*models.RideRequest, error) {
	query := `
		SELECT id, ride_id, driver_id, status, response_time, created_at
		FROM ride_requests
		WHERE ride_id = $1 AND driver_id = $2 AND status = 'pending'
	`

	req := &models.RideRequest{}
	err := r.db.QueryRow(query, rideID, driverID).Scan(
		&req.ID, &req.RideID, &req.DriverID, &req.Status, &req.ResponseTime, &req.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no ride request found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ride request: %w", err)
	}

	return req, nil
}

// ListPendingByDriver returns a driver's open offers, oldest first
func (r *RideRequestRepository) ListPendingByDriver(driverID uuid.UUID) ([]models.RideRequest, error) {
	query := `
		SELECT id, ride_id, driver_id, status, response_time, created_at
		FROM ride_requests
		WHERE driver_id = $1 AND status = 'pending'
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ride requests: %w", err)
	}
	defer rows.Close()

	requests := []models.RideRequest{}
	for rows.Next() {
		var req models.RideRequest
		if err := rows.Scan(&req.ID, &req.RideID, &req.DriverID, &req.Status, &req.ResponseTime, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ride request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}
