package services

import (
	"math"

	"github.com/moms2go/ride-backend/internal/config"
)

// earthRadiusMiles is the Earth radius used for great-circle distances
const earthRadiusMiles = 3959.0

// FareService computes ride distance and fare. Pure arithmetic; it always
// succeeds for finite inputs.
type FareService struct {
	cfg config.FareConfig
}

// NewFareService creates a new fare service
func NewFareService(cfg config.FareConfig) *FareService {
	return &FareService{cfg: cfg}
}

// Haversine returns the great-circle distance in miles between two
// coordinate pairs
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// Estimate returns the trip distance in miles and the fare in dollars,
// rounded to 2 decimal places. Identical pickup and destination yields the
// base fare times the emergency multiplier.
func (s *FareService) Estimate(pickupLat, pickupLon, destLat, destLon float64, isEmergency bool) (distance, fare float64) {
	distance = Haversine(pickupLat, pickupLon, destLat, destLon)

	multiplier := 1.0
	if isEmergency {
		multiplier = s.cfg.EmergencyMultiplier
	}

	fare = (s.cfg.BaseFare + distance*s.cfg.PerMileRate) * multiplier
	return distance, math.Round(fare*100) / 100
}

// ETAMinutes returns the estimated minutes to cover the distance between
// two points at the configured city speed
func (s *FareService) ETAMinutes(fromLat, fromLon, toLat, toLon float64) int {
	distance := Haversine(fromLat, fromLon, toLat, toLon)
	return int(math.Round(distance / s.cfg.AssumedSpeedMPH * 60))
}
