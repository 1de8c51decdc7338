package mailer

import (
	"fmt"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled(t *testing.T) {
	assert.False(t, New(Config{}).Enabled())
	assert.True(t, New(Config{Host: "smtp.example.com"}).Enabled())
}

func TestSend(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		m := New(Config{})

		err := m.Send(Email{To: "mom@example.com", Subject: "Hello"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})

	t.Run("Missing recipient", func(t *testing.T) {
		m := New(Config{Host: "smtp.example.com", Port: 587})

		err := m.Send(Email{Subject: "Hello"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recipient")
	})

	t.Run("Delivers through SMTP", func(t *testing.T) {
		m := New(Config{
			Host:     "smtp.example.com",
			Port:     587,
			Username: "sender",
			Password: "secret",
			From:     "noreply@moms2go.example",
		})

		var gotAddr, gotFrom string
		var gotTo []string
		var gotMsg []byte
		m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr = addr
			gotFrom = from
			gotTo = to
			gotMsg = msg
			return nil
		}

		email := RideBooked("mom@example.com", RideBookedData{
			PassengerName:      "Jane Doe",
			PickupAddress:      "100 Main St",
			DestinationAddress: "Mercy Hospital",
			FareAmount:         17.50,
		})
		require.NoError(t, m.Send(email))

		assert.Equal(t, "smtp.example.com:587", gotAddr)
		assert.Equal(t, "noreply@moms2go.example", gotFrom)
		assert.Equal(t, []string{"mom@example.com"}, gotTo)
		assert.Contains(t, string(gotMsg), "Subject: Ride Confirmed - Moms2Go")
		assert.Contains(t, string(gotMsg), "Jane Doe")
		assert.Contains(t, string(gotMsg), "text/html")
	})

	t.Run("SMTP failure is wrapped", func(t *testing.T) {
		m := New(Config{Host: "smtp.example.com", Port: 587})
		m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			return fmt.Errorf("connection refused")
		}

		err := m.Send(Email{To: "mom@example.com", Subject: "Hello"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send email")
	})
}

func TestBuildMessage(t *testing.T) {
	m := New(Config{From: "noreply@moms2go.example"})

	t.Run("Text falls back to the subject", func(t *testing.T) {
		msg := string(m.buildMessage(Email{To: "mom@example.com", Subject: "Just a subject"}))

		assert.Contains(t, msg, "Just a subject")
		assert.Contains(t, msg, "text/plain")
		assert.NotContains(t, msg, "text/html")
	})

	t.Run("HTML part included when present", func(t *testing.T) {
		msg := string(m.buildMessage(Email{
			To:      "mom@example.com",
			Subject: "Hello",
			Text:    "plain body",
			HTML:    "<p>rich body</p>",
		}))

		assert.Contains(t, msg, "plain body")
		assert.Contains(t, msg, "<p>rich body</p>")
		assert.Contains(t, msg, "multipart/alternative")
	})
}

func TestTemplates(t *testing.T) {
	t.Run("RideAccepted", func(t *testing.T) {
		email := RideAccepted("mom@example.com", RideAcceptedData{
			PassengerName: "Jane Doe",
			DriverName:    "Alex Smith",
			VehicleInfo:   "Toyota Sienna (Silver)",
		})

		assert.Equal(t, "mom@example.com", email.To)
		assert.Contains(t, email.HTML, "Alex Smith")
		assert.Contains(t, email.Text, "Toyota Sienna (Silver)")
	})

	t.Run("DriverApplication", func(t *testing.T) {
		email := DriverApplication("driver@example.com", "Alex Smith")

		assert.Equal(t, "driver@example.com", email.To)
		assert.Contains(t, email.Subject, "Driver Application")
		assert.Contains(t, email.HTML, "Alex Smith")
	})
}
