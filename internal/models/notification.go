package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType is the closed set of notification kinds. Adding a kind
// without a template entry makes Render return an error, so new kinds
// cannot slip through unhandled.
type NotificationType string

const (
	NotifyRideRequest       NotificationType = "ride_request"
	NotifyRideAccepted      NotificationType = "ride_accepted"
	NotifyRideUnavailable   NotificationType = "ride_unavailable"
	NotifyRideUpdate        NotificationType = "ride_update"
	NotifyPaymentSuccess    NotificationType = "payment_success"
	NotifyPaymentFailed     NotificationType = "payment_failed"
	NotifyDriverApplication NotificationType = "driver_application"
)

// Notification is an append-only per-user inbox entry. It never mutates
// business state.
type Notification struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"user_id" db:"user_id"`
	Type          NotificationType `json:"type" db:"type"`
	Title         string           `json:"title" db:"title"`
	Message       string           `json:"message" db:"message"`
	IsRead        bool             `json:"is_read" db:"is_read"`
	RelatedRideID uuid.NullUUID    `json:"related_ride_id,omitempty" db:"related_ride_id"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// NotificationData carries the variable parts a template may reference
type NotificationData struct {
	PickupAddress      string
	DestinationAddress string
	DriverName         string
	Status             string
	Amount             float64
	IsEmergency        bool
}

// Render returns the title and message for a notification kind. Unknown
// kinds are an error rather than a silent empty notification.
func (t NotificationType) Render(data NotificationData) (title, message string, err error) {
	switch t {
	case NotifyRideRequest:
		title = "New Ride Request"
		if data.IsEmergency {
			title = "Emergency Ride Request"
		}
		return title, fmt.Sprintf("New ride from %s to %s", data.PickupAddress, data.DestinationAddress), nil
	case NotifyRideAccepted:
		return "Ride Accepted!", fmt.Sprintf("Your ride has been accepted. Driver: %s", data.DriverName), nil
	case NotifyRideUnavailable:
		return "Ride No Longer Available", "This ride has been accepted by another driver", nil
	case NotifyRideUpdate:
		return "Ride Status Update", fmt.Sprintf("Your ride status has been updated to: %s", data.Status), nil
	case NotifyPaymentSuccess:
		return "Payment Successful", fmt.Sprintf("Your payment of $%.2f has been processed successfully.", data.Amount), nil
	case NotifyPaymentFailed:
		return "Payment Failed", fmt.Sprintf("Your payment of $%.2f could not be processed. Please try again or contact support.", data.Amount), nil
	case NotifyDriverApplication:
		return "Application Received", "Thank you for applying to drive with Moms2Go. We will review your application within 3-5 business days.", nil
	}
	return "", "", fmt.Errorf("unknown notification type: %s", t)
}
