package mailer

import (
	"fmt"
	"time"
)

// RideBookedData carries the fields of the booking confirmation email
type RideBookedData struct {
	PassengerName      string
	PickupAddress      string
	DestinationAddress string
	ScheduledTime      time.Time
	FareAmount         float64
}

// RideBooked renders the booking confirmation email
func RideBooked(to string, data RideBookedData) Email {
	when := data.ScheduledTime.Format("Mon, 2 Jan 2006 3:04 PM")
	html := fmt.Sprintf(`<html><body>
<h1>Ride Confirmed!</h1>
<p>Dear %s,</p>
<p>Your ride with Moms2Go has been confirmed. Our certified drivers will ensure your safe and comfortable journey.</p>
<ul>
<li><strong>From:</strong> %s</li>
<li><strong>To:</strong> %s</li>
<li><strong>Scheduled Time:</strong> %s</li>
<li><strong>Estimated Fare:</strong> $%.2f</li>
</ul>
<p>We'll notify you once a driver accepts your ride.</p>
<p>Moms2Go - Safe rides for life's precious moments</p>
</body></html>`,
		data.PassengerName, data.PickupAddress, data.DestinationAddress, when, data.FareAmount)

	text := fmt.Sprintf("Ride Confirmed - Moms2Go\n\nDear %s,\n\nYour ride has been confirmed:\nFrom: %s\nTo: %s\nTime: %s\nFare: $%.2f\n\nThank you for choosing Moms2Go!",
		data.PassengerName, data.PickupAddress, data.DestinationAddress, when, data.FareAmount)

	return Email{
		To:      to,
		Subject: "Ride Confirmed - Moms2Go",
		HTML:    html,
		Text:    text,
	}
}

// RideAcceptedData carries the fields of the driver-on-the-way email
type RideAcceptedData struct {
	PassengerName string
	DriverName    string
	VehicleInfo   string
}

// RideAccepted renders the driver-on-the-way email
func RideAccepted(to string, data RideAcceptedData) Email {
	html := fmt.Sprintf(`<html><body>
<h1>Driver On The Way!</h1>
<p>Dear %s,</p>
<p>Great news! Your ride has been accepted and your driver is on the way.</p>
<ul>
<li><strong>Driver:</strong> %s</li>
<li><strong>Vehicle:</strong> %s</li>
</ul>
<p>Your driver will contact you when they arrive. Please be ready at your pickup location.</p>
<p>Moms2Go - Safe rides for life's precious moments</p>
</body></html>`,
		data.PassengerName, data.DriverName, data.VehicleInfo)

	text := fmt.Sprintf("Driver On The Way!\n\nDear %s,\n\nYour driver %s is on the way in a %s.",
		data.PassengerName, data.DriverName, data.VehicleInfo)

	return Email{
		To:      to,
		Subject: "Driver On The Way - Moms2Go",
		HTML:    html,
		Text:    text,
	}
}

// DriverApplication renders the driver application acknowledgement email
func DriverApplication(to, driverName string) Email {
	html := fmt.Sprintf(`<html><body>
<h1>Application Received!</h1>
<p>Dear %s,</p>
<p>Thank you for your interest in joining the Moms2Go family as a certified driver.</p>
<ol>
<li><strong>Background Check:</strong> We'll verify your driving record.</li>
<li><strong>Vehicle Inspection:</strong> Your vehicle will be inspected for safety standards.</li>
<li><strong>Training:</strong> Complete our maternal care and CPR certification training.</li>
<li><strong>Approval:</strong> Once all requirements are met, you can start accepting rides.</li>
</ol>
<p>The approval process typically takes 3-5 business days.</p>
</body></html>`, driverName)

	text := fmt.Sprintf("Application Received - Moms2Go\n\nDear %s,\n\nThank you for applying to drive with Moms2Go. The approval process typically takes 3-5 business days.", driverName)

	return Email{
		To:      to,
		Subject: "Driver Application Received - Moms2Go",
		HTML:    html,
		Text:    text,
	}
}
