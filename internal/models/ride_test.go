package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRideRequestValidate(t *testing.T) {
	valid := CreateRideRequest{
		PickupAddress:        "100 Main St",
		PickupLatitude:       40.7128,
		PickupLongitude:      -74.0060,
		DestinationAddress:   "Mercy Hospital",
		DestinationLatitude:  40.7580,
		DestinationLongitude: -73.9855,
	}

	t.Run("Valid request", func(t *testing.T) {
		req := valid
		assert.NoError(t, req.Validate())
	})

	t.Run("Missing pickup address", func(t *testing.T) {
		req := valid
		req.PickupAddress = ""
		assert.Error(t, req.Validate())
	})

	t.Run("Missing destination address", func(t *testing.T) {
		req := valid
		req.DestinationAddress = ""
		assert.Error(t, req.Validate())
	})

	t.Run("Latitude out of range", func(t *testing.T) {
		req := valid
		req.PickupLatitude = 91
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "latitude")
	})

	t.Run("Longitude out of range", func(t *testing.T) {
		req := valid
		req.DestinationLongitude = -181
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "longitude")
	})
}

func TestDriverRideUpdateValidate(t *testing.T) {
	t.Run("Missing status", func(t *testing.T) {
		update := DriverRideUpdate{}
		assert.Error(t, update.Validate())
	})

	t.Run("Allowed transitions", func(t *testing.T) {
		for _, status := range []RideStatus{RideInProgress, RideCompleted, RideCancelled} {
			s := status
			assert.NoError(t, (&DriverRideUpdate{Status: &s}).Validate())
		}
	})

	t.Run("Driver cannot set pending or accepted", func(t *testing.T) {
		for _, status := range []RideStatus{RidePending, RideAccepted} {
			s := status
			assert.Error(t, (&DriverRideUpdate{Status: &s}).Validate())
		}
	})
}

func TestNotificationRender(t *testing.T) {
	t.Run("Ride request", func(t *testing.T) {
		title, message, err := NotifyRideRequest.Render(NotificationData{
			PickupAddress:      "100 Main St",
			DestinationAddress: "Mercy Hospital",
		})
		require.NoError(t, err)
		assert.Equal(t, "New Ride Request", title)
		assert.Contains(t, message, "100 Main St")
		assert.Contains(t, message, "Mercy Hospital")
	})

	t.Run("Emergency ride request gets its own title", func(t *testing.T) {
		title, _, err := NotifyRideRequest.Render(NotificationData{IsEmergency: true})
		require.NoError(t, err)
		assert.Equal(t, "Emergency Ride Request", title)
	})

	t.Run("Payment success includes the amount", func(t *testing.T) {
		_, message, err := NotifyPaymentSuccess.Render(NotificationData{Amount: 17.5})
		require.NoError(t, err)
		assert.Contains(t, message, "$17.50")
	})

	t.Run("Unknown kind is an error", func(t *testing.T) {
		_, _, err := NotificationType("mystery").Render(NotificationData{})
		assert.Error(t, err)
	})
}
