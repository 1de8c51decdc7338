package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the payment lifecycle state
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is the (eventually) 1:1 payment record for a completed ride.
// Idempotency is keyed on the Stripe payment intent id.
type Payment struct {
	ID                    uuid.UUID     `json:"id" db:"id"`
	RideID                uuid.UUID     `json:"ride_id" db:"ride_id"`
	Amount                float64       `json:"amount" db:"amount"`
	Currency              string        `json:"currency" db:"currency"`
	PaymentMethod         NullString    `json:"payment_method,omitempty" db:"payment_method"`
	StripePaymentIntentID NullString    `json:"stripe_payment_intent_id,omitempty" db:"stripe_payment_intent_id"`
	Status                PaymentStatus `json:"status" db:"status"`
	ProcessedAt           NullTime      `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt             time.Time     `json:"created_at" db:"created_at"`
}

// CreateIntentRequest is the passenger's payment-initiation payload
type CreateIntentRequest struct {
	RideID   uuid.UUID `json:"ride_id"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
}

// Validate checks the payment-initiation payload
func (r *CreateIntentRequest) Validate() error {
	if r.RideID == uuid.Nil {
		return fmt.Errorf("ride_id is required")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if r.Currency == "" {
		r.Currency = "usd"
	}
	if len(r.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code")
	}
	return nil
}
