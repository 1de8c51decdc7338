package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/moms2go/ride-backend/internal/models"
)

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a pending payment record
func (r *PaymentRepository) Create(p *models.Payment) error {
	query := `
		INSERT INTO payments (id, ride_id, amount, currency, stripe_payment_intent_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.PaymentPending
	}

	err := r.db.QueryRow(
		query,
		p.ID, p.RideID, p.Amount, p.Currency, p.StripePaymentIntentID, p.Status,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByRideID retrieves the payment for a ride
func (r *PaymentRepository) GetByRideID(rideID uuid.UUID) (*models.Payment, error) {
	query := `
		SELECT id, ride_id, amount, currency, payment_method,
		       stripe_payment_intent_id, status, processed_at, created_at
		FROM payments
		WHERE ride_id = $1
	`

	return r.scanPayment(r.db.QueryRow(query, rideID))
}

// Reset re-points an existing payment at a fresh intent and flips it back
// to pending (retry after a failed attempt)
func (r *PaymentRepository) Reset(paymentID uuid.UUID, amount float64, currency, intentID string) error {
	query := `
		UPDATE payments
		SET amount = $2, currency = $3, stripe_payment_intent_id = $4, status = 'pending'
		WHERE id = $1
	`

	result, err := r.db.Exec(query, paymentID, amount, currency, intentID)
	if err != nil {
		return fmt.Errorf("failed to reset payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("payment not found: %w", ErrNotFound)
	}

	return nil
}

// MarkCompleted transitions a payment to completed, keyed on the intent id.
// The status guard makes duplicate webhook deliveries a no-op: a second
// delivery affects zero rows and returns ErrConflict.
func (r *PaymentRepository) MarkCompleted(intentID string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'completed', processed_at = NOW()
		WHERE stripe_payment_intent_id = $1 AND status <> 'completed'
		RETURNING id, ride_id, amount, currency, payment_method,
		          stripe_payment_intent_id, status, processed_at, created_at
	`

	p, err := r.scanPayment(r.db.QueryRow(query, intentID))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("payment already completed or unknown intent: %w", ErrConflict)
	}
	return p, err
}

// MarkFailed transitions a pending payment to failed, keyed on the intent id
func (r *PaymentRepository) MarkFailed(intentID string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'failed'
		WHERE stripe_payment_intent_id = $1 AND status = 'pending'
		RETURNING id, ride_id, amount, currency, payment_method,
		          stripe_payment_intent_id, status, processed_at, created_at
	`

	p, err := r.scanPayment(r.db.QueryRow(query, intentID))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("payment not pending or unknown intent: %w", ErrConflict)
	}
	return p, err
}

func (r *PaymentRepository) scanPayment(row scanner) (*models.Payment, error) {
	p := &models.Payment{}

	err := row.Scan(
		&p.ID, &p.RideID, &p.Amount, &p.Currency, &p.PaymentMethod,
		&p.StripePaymentIntentID, &p.Status, &p.ProcessedAt, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}

	return p, nil
}
