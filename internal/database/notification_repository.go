package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/moms2go/ride-backend/internal/models"
)

// NotificationRepository handles database operations for the notifications
// table, an append-only per-user inbox
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, related_ride_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING is_read, created_at
	`

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.RelatedRideID,
	).Scan(&n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListByUser returns the user's newest notifications, capped at limit
func (r *NotificationRepository) ListByUser(userID uuid.UUID, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, is_read, related_ride_id, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.RelatedRideID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkAllRead marks every notification of the user as read
func (r *NotificationRepository) MarkAllRead(userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`

	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}
