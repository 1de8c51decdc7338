package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/utils"
)

// AuditService writes security-relevant events to the audit_logs table.
// Entries are append-only and kept separate from the user-facing
// notification inbox.
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new AuditService
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEvent is one security event
type AuditEvent struct {
	UserID     *uuid.UUID // nil for pre-authentication events
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// AuditRecord is a stored audit entry as returned to admins
type AuditRecord struct {
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	IPAddress  string          `json:"ip_address"`
	UserAgent  string          `json:"user_agent"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  time.Time       `json:"created_at"`
}

// LogSignup records a successful registration
func (s *AuditService) LogSignup(userID uuid.UUID, role, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     "signup",
		EntityType: "user",
		EntityID:   &userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"role":        role,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogSignin records a login attempt. UserID is nil when the email was
// unknown.
func (s *AuditService) LogSignin(userID *uuid.UUID, email string, success bool, ipAddress, userAgent string) error {
	action := "signin_failed"
	if success {
		action = "signin_success"
	}

	return s.logEvent(AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"success":     success,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogTokenRefresh records a refresh token usage
func (s *AuditService) LogTokenRefresh(userID uuid.UUID, success bool, ipAddress, userAgent string) error {
	action := "token_refresh_failed"
	if success {
		action = "token_refresh_success"
	}

	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     action,
		EntityType: "token",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"success":     success,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogRideAccepted records which driver claimed a ride
func (s *AuditService) LogRideAccepted(userID, rideID uuid.UUID, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     "ride_accepted",
		EntityType: "ride",
		EntityID:   &rideID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogWebhookReceived records an inbound payment webhook delivery
func (s *AuditService) LogWebhookReceived(eventType, intentID, ipAddress string, verified bool) error {
	return s.logEvent(AuditEvent{
		Action:     "payment_webhook",
		EntityType: "payment",
		IPAddress:  ipAddress,
		Details: map[string]interface{}{
			"event_type": eventType,
			"intent_id":  intentID,
			"verified":   verified,
		},
	})
}

func (s *AuditService) logEvent(event AuditEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = s.db.Exec(
		query,
		event.UserID, event.Action, event.EntityType, event.EntityID,
		event.IPAddress, event.UserAgent, details,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// RecentEvents returns a user's newest audit entries
func (s *AuditService) RecentEvents(userID uuid.UUID, limit int) ([]AuditRecord, error) {
	query := `
		SELECT action, entity_type, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	records := []AuditRecord{}
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.Action, &rec.EntityType, &rec.IPAddress, &rec.UserAgent, &rec.Details, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// PruneOlderThan removes audit entries past the retention window
func (s *AuditService) PruneOlderThan(retention time.Duration) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM audit_logs WHERE created_at < $1`, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit logs: %w", err)
	}
	return result.RowsAffected()
}
