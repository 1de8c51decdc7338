package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/moms2go/ride-backend/internal/models"
)

// PassengerRepository handles database operations for the passengers table
type PassengerRepository struct {
	db DB
}

// NewPassengerRepository creates a new PassengerRepository
func NewPassengerRepository(db DB) *PassengerRepository {
	return &PassengerRepository{db: db}
}

// Create inserts a new passenger profile
func (r *PassengerRepository) Create(p *models.Passenger) error {
	query := `
		INSERT INTO passengers (
			id, user_id, emergency_contact_name, emergency_contact_phone,
			medical_notes, due_date, is_pregnant
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		p.ID, p.UserID, p.EmergencyContactName, p.EmergencyContactPhone,
		p.MedicalNotes, p.DueDate, p.IsPregnant,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create passenger: %w", err)
	}

	return nil
}

// GetByUserID retrieves the passenger profile for a user
func (r *PassengerRepository) GetByUserID(userID uuid.UUID) (*models.Passenger, error) {
	query := `
		SELECT id, user_id, emergency_contact_name, emergency_contact_phone,
		       medical_notes, due_date, is_pregnant, created_at, updated_at
		FROM passengers
		WHERE user_id = $1
	`

	return r.scanPassenger(r.db.QueryRow(query, userID))
}

// GetByID retrieves a passenger by ID
func (r *PassengerRepository) GetByID(passengerID uuid.UUID) (*models.Passenger, error) {
	query := `
		SELECT id, user_id, emergency_contact_name, emergency_contact_phone,
		       medical_notes, due_date, is_pregnant, created_at, updated_at
		FROM passengers
		WHERE id = $1
	`

	return r.scanPassenger(r.db.QueryRow(query, passengerID))
}

func (r *PassengerRepository) scanPassenger(row scanner) (*models.Passenger, error) {
	p := &models.Passenger{}

	err := row.Scan(
		&p.ID, &p.UserID, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.MedicalNotes, &p.DueDate, &p.IsPregnant, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("passenger profile not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch passenger: %w", err)
	}

	return p, nil
}
