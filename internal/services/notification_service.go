package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
)

// NotificationService writes in-app inbox entries. Notifications are
// side-channel output: a failed insert is logged and never propagated, so
// the business operation that triggered it still succeeds.
type NotificationService struct {
	notificationRepo *database.NotificationRepository
	logger           *logrus.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo *database.NotificationRepository, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Notify renders and stores one notification for a user. Errors are logged
// and swallowed.
func (s *NotificationService) Notify(userID uuid.UUID, kind models.NotificationType, data models.NotificationData, rideID uuid.NullUUID) {
	title, message, err := kind.Render(data)
	if err != nil {
		s.logger.WithError(err).WithField("type", kind).Error("Failed to render notification")
		return
	}

	n := &models.Notification{
		UserID:        userID,
		Type:          kind,
		Title:         title,
		Message:       message,
		RelatedRideID: rideID,
	}

	if err := s.notificationRepo.Create(n); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"type":    kind,
		}).Error("Failed to store notification")
	}
}

// NotifyMany fans one notification out to several users
func (s *NotificationService) NotifyMany(userIDs []uuid.UUID, kind models.NotificationType, data models.NotificationData, rideID uuid.NullUUID) {
	for _, userID := range userIDs {
		s.Notify(userID, kind, data, rideID)
	}
}

// List returns the user's newest notifications
func (s *NotificationService) List(userID uuid.UUID, limit int) ([]models.Notification, error) {
	return s.notificationRepo.ListByUser(userID, limit)
}

// MarkAllRead marks every notification of the user as read
func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(userID)
}
