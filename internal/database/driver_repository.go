package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/moms2go/ride-backend/internal/models"
)

const driverColumns = `id, user_id, license_number, vehicle_make, vehicle_model,
	vehicle_year, vehicle_plate, vehicle_color, cpr_certified, background_check,
	status, rating, total_rides, current_latitude, current_longitude,
	is_approved, created_at, updated_at`

// DriverRepository handles database operations for the drivers table
type DriverRepository struct {
	db DB
}

// NewDriverRepository creates a new DriverRepository
func NewDriverRepository(db DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// Create inserts a new driver profile. New drivers start unapproved,
// available, with a 5.0 rating.
func (r *DriverRepository) Create(d *models.Driver) error {
	query := `
		INSERT INTO drivers (
			id, user_id, license_number, vehicle_make, vehicle_model,
			vehicle_year, vehicle_plate, vehicle_color
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING status, rating, total_rides, is_approved, created_at, updated_at
	`

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		d.ID, d.UserID, d.LicenseNumber, d.VehicleMake, d.VehicleModel,
		d.VehicleYear, d.VehiclePlate, d.VehicleColor,
	).Scan(&d.Status, &d.Rating, &d.TotalRides, &d.IsApproved, &d.CreatedAt, &d.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("license number already registered: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	return nil
}

// GetByID retrieves a driver by ID
func (r *DriverRepository) GetByID(driverID uuid.UUID) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return r.scanDriver(r.db.QueryRow(query, driverID))
}

// GetByUserID retrieves the driver profile for a user
func (r *DriverRepository) GetByUserID(userID uuid.UUID) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1`
	return r.scanDriver(r.db.QueryRow(query, userID))
}

// ListEligible returns approved, available drivers capped at limit. This is
// the matching candidate set; no proximity ranking is applied.
func (r *DriverRepository) ListEligible(limit int) ([]models.Driver, error) {
	query := `
		SELECT ` + driverColumns + `
		FROM drivers
		WHERE status = 'available' AND is_approved = true
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible drivers: %w", err)
	}
	defer rows.Close()

	return r.scanDrivers(rows)
}

// ListAll returns every driver joined with its user record, newest first
func (r *DriverRepository) ListAll() ([]models.AdminDriverView, error) {
	query := `
		SELECT d.id, d.user_id, d.license_number, d.vehicle_make, d.vehicle_model,
		       d.vehicle_year, d.vehicle_plate, d.vehicle_color, d.cpr_certified,
		       d.background_check, d.status, d.rating, d.total_rides,
		       d.current_latitude, d.current_longitude, d.is_approved,
		       d.created_at, d.updated_at, u.name, u.email, u.phone
		FROM drivers d
		LEFT JOIN users u ON d.user_id = u.id
		ORDER BY d.created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer rows.Close()

	views := []models.AdminDriverView{}
	for rows.Next() {
		var v models.AdminDriverView
		err := rows.Scan(
			&v.ID, &v.UserID, &v.LicenseNumber, &v.VehicleMake, &v.VehicleModel,
			&v.VehicleYear, &v.VehiclePlate, &v.VehicleColor, &v.CPRCertified,
			&v.BackgroundCheck, &v.Status, &v.Rating, &v.TotalRides,
			&v.CurrentLatitude, &v.CurrentLongitude, &v.IsApproved,
			&v.CreatedAt, &v.UpdatedAt, &v.Name, &v.Email, &v.Phone,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver row: %w", err)
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

// ListAvailable returns the limited projection of eligible drivers that
// passengers may browse
func (r *DriverRepository) ListAvailable() ([]models.AvailableDriverView, error) {
	query := `
		SELECT id, vehicle_make, vehicle_model, vehicle_color, rating, total_rides
		FROM drivers
		WHERE status = 'available' AND is_approved = true
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list available drivers: %w", err)
	}
	defer rows.Close()

	views := []models.AvailableDriverView{}
	for rows.Next() {
		var v models.AvailableDriverView
		if err := rows.Scan(&v.ID, &v.VehicleMake, &v.VehicleModel, &v.VehicleColor, &v.Rating, &v.TotalRides); err != nil {
			return nil, fmt.Errorf("failed to scan driver row: %w", err)
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

// ApplySelfUpdate applies a driver's own status/position update
func (r *DriverRepository) ApplySelfUpdate(driverID uuid.UUID, update *models.DriverSelfUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{driverID}

	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.CurrentLatitude != nil {
		args = append(args, *update.CurrentLatitude)
		sets = append(sets, fmt.Sprintf("current_latitude = $%d", len(args)))
		args = append(args, *update.CurrentLongitude)
		sets = append(sets, fmt.Sprintf("current_longitude = $%d", len(args)))
	}

	query := fmt.Sprintf("UPDATE drivers SET %s WHERE id = $1", strings.Join(sets, ", "))
	return r.exec(query, args...)
}

// ApplyAdminUpdate applies an admin's approval/certification/status update
func (r *DriverRepository) ApplyAdminUpdate(update *models.AdminDriverUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{update.DriverID}

	if update.IsApproved != nil {
		args = append(args, *update.IsApproved)
		sets = append(sets, fmt.Sprintf("is_approved = $%d", len(args)))
	}
	if update.CPRCertified != nil {
		args = append(args, *update.CPRCertified)
		sets = append(sets, fmt.Sprintf("cpr_certified = $%d", len(args)))
	}
	if update.BackgroundCheck != nil {
		args = append(args, *update.BackgroundCheck)
		sets = append(sets, fmt.Sprintf("background_check = $%d", len(args)))
	}
	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf("UPDATE drivers SET %s WHERE id = $1", strings.Join(sets, ", "))
	return r.exec(query, args...)
}

// UpdatePosition sets the driver's live coordinates
func (r *DriverRepository) UpdatePosition(driverID uuid.UUID, lat, lon float64) error {
	query := `
		UPDATE drivers
		SET current_latitude = $2, current_longitude = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(query, driverID, lat, lon)
}

// UpdateStatus is a conditional status transition: it only succeeds when the
// driver is currently in the expected state.
func (r *DriverRepository) UpdateStatus(driverID uuid.UUID, expected, next models.DriverStatus) error {
	query := `
		UPDATE drivers
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(query, driverID, expected, next)
	if err != nil {
		return fmt.Errorf("failed to update driver status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("driver not in %s state: %w", expected, ErrConflict)
	}

	return nil
}

// UpdateStats sets the driver's aggregate rating and ride count. A nil
// rating leaves the current rating untouched.
func (r *DriverRepository) UpdateStats(driverID uuid.UUID, rating *float64, totalRides int) error {
	if rating == nil {
		return r.exec(`UPDATE drivers SET total_rides = $2, updated_at = NOW() WHERE id = $1`, driverID, totalRides)
	}
	return r.exec(
		`UPDATE drivers SET rating = $2, total_rides = $3, updated_at = NOW() WHERE id = $1`,
		driverID, *rating, totalRides,
	)
}

func (r *DriverRepository) exec(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("driver not found: %w", ErrNotFound)
	}

	return nil
}

func (r *DriverRepository) scanDriver(row scanner) (*models.Driver, error) {
	d := &models.Driver{}

	err := row.Scan(
		&d.ID, &d.UserID, &d.LicenseNumber, &d.VehicleMake, &d.VehicleModel,
		&d.VehicleYear, &d.VehiclePlate, &d.VehicleColor, &d.CPRCertified,
		&d.BackgroundCheck, &d.Status, &d.Rating, &d.TotalRides,
		&d.CurrentLatitude, &d.CurrentLongitude, &d.IsApproved,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("driver profile not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch driver: %w", err)
	}

	return d, nil
}

func (r *DriverRepository) scanDrivers(rows *sql.Rows) ([]models.Driver, error) {
	drivers := []models.Driver{}

	for rows.Next() {
		var d models.Driver
		err := rows.Scan(
			&d.ID, &d.UserID, &d.LicenseNumber, &d.VehicleMake, &d.VehicleModel,
			&d.VehicleYear, &d.VehiclePlate, &d.VehicleColor, &d.CPRCertified,
			&d.BackgroundCheck, &d.Status, &d.Rating, &d.TotalRides,
			&d.CurrentLatitude, &d.CurrentLongitude, &d.IsApproved,
			&d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver row: %w", err)
		}
		drivers = append(drivers, d)
	}

	return drivers, rows.Err()
}
