package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/middleware"
	"github.com/moms2go/ride-backend/internal/models"
	"github.com/moms2go/ride-backend/internal/services"
)

// RideHandler handles the ride lifecycle endpoints
type RideHandler struct {
	rideService     *services.RideService
	acceptService   *services.AcceptanceService
	ratingService   *services.RatingService
	trackingService *services.TrackingService
	audit           *services.AuditService
	logger          *logrus.Logger
}

// NewRideHandler creates a new RideHandler
func NewRideHandler(
	rideService *services.RideService,
	acceptService *services.AcceptanceService,
	ratingService *services.RatingService,
	trackingService *services.TrackingService,
	audit *services.AuditService,
	logger *logrus.Logger,
) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		acceptService:   acceptService,
		ratingService:   ratingService,
		trackingService: trackingService,
		audit:           audit,
		logger:          logger,
	}
}

// Create books a new ride for the calling passenger
// @Summary Book a ride
// @Description Create a ride, compute the fare and notify available drivers
// @Tags Rides
// @Accept json
// @Produce json
// @Param request body models.CreateRideRequest true "Booking request"
// @Success 201 {object} services.BookResult "Ride created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Security BearerAuth
// @Router /api/v1/rides [post]
func (h *RideHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.rideService.Book(userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List returns the caller's rides. Passengers see their own history with
// driver details, drivers see assigned rides with passenger details, admins
// see everything.
// @Summary List rides
// @Tags Rides
// @Produce json
// @Param limit query int false "Max rides to return (drivers only)"
// @Success 200 {object} map[string]interface{} "Ride list"
// @Security BearerAuth
// @Router /api/v1/rides [get]
func (h *RideHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	switch userCtx.Role {
	case models.RolePassenger:
		rides, err := h.rideService.ListForPassenger(userCtx.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rides": rides})

	case models.RoleDriver:
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = parsed
		}
		rides, err := h.rideService.ListForDriver(userCtx.UserID, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rides": rides})

	case models.RoleAdmin:
		rides, err := h.rideService.ListAll()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rides": rides})

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Unknown role"})
	}
}

// Get returns one ride the caller may see
// @Summary Get a ride
// @Tags Rides
// @Produce json
// @Param id path string true "Ride ID"
// @Success 200 {object} models.Ride "Ride"
// @Failure 403 {object} map[string]interface{} "Not your ride"
// @Failure 404 {object} map[string]interface{} "Ride not found"
// @Security BearerAuth
// @Router /api/v1/rides/{id} [get]
func (h *RideHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.Get(rideID, userCtx.UserID, userCtx.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ride)
}

// Update applies a role-specific ride update: drivers advance the status,
// passengers rate a completed ride, admins may force-set fields
// @Summary Update a ride
// @Tags Rides
// @Accept json
// @Produce json
// @Param id path string true "Ride ID"
// @Success 200 {object} models.Ride "Updated ride"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 403 {object} map[string]interface{} "Not your ride"
// @Failure 409 {object} map[string]interface{} "Ride not in expected state"
// @Security BearerAuth
// @Router /api/v1/rides/{id} [patch]
func (h *RideHandler) Update(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	switch userCtx.Role {
	case models.RoleDriver:
		var update models.DriverRideUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		ride, err := h.rideService.ApplyDriverUpdate(rideID, userCtx.UserID, &update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ride)

	case models.RolePassenger:
		var update models.PassengerRideUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		ride, err := h.ratingService.RateRide(rideID, userCtx.UserID, &update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ride)

	case models.RoleAdmin:
		var update models.AdminRideUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		ride, err := h.rideService.ApplyAdminUpdate(rideID, &update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ride)

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Unknown role"})
	}
}

// Accept claims a pending ride for the calling driver
// @Summary Accept a ride
// @Description First driver to accept wins; later attempts get 409
// @Tags Rides
// @Produce json
// @Param id path string true "Ride ID"
// @Success 200 {object} models.Ride "Ride accepted"
// @Failure 403 {object} map[string]interface{} "Driver not eligible"
// @Failure 409 {object} map[string]interface{} "Ride no longer available"
// @Security BearerAuth
// @Router /api/v1/rides/{id}/accept [post]
func (h *RideHandler) Accept(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	ride, err := h.acceptService.Accept(rideID, userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.audit.LogRideAccepted(userCtx.UserID, rideID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.logger.WithError(err).Warn("Failed to record ride acceptance audit event")
	}

	c.JSON(http.StatusOK, ride)
}

// Track returns the live position and arrival estimate for a ride
// @Summary Track a ride
// @Tags Rides
// @Produce json
// @Param id path string true "Ride ID"
// @Success 200 {object} services.TrackingInfo "Tracking info"
// @Security BearerAuth
// @Router /api/v1/rides/{id}/track [get]
func (h *RideHandler) Track(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	info, err := h.trackingService.Track(rideID, userCtx.UserID, userCtx.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// locationUpdate is the driver's live position report
type locationUpdate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ReportLocation stores the calling driver's current coordinates
// @Summary Report driver location
// @Tags Rides
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Location stored"
// @Security BearerAuth
// @Router /api/v1/drivers/location [post]
func (h *RideHandler) ReportLocation(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req locationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	if err := h.trackingService.ReportPosition(userCtx.UserID, *req.Latitude, *req.Longitude); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location updated"})
}

// parseRideID reads the :id path param as a UUID; on failure it writes the
// 400 response and returns false
func parseRideID(c *gin.Context) (uuid.UUID, bool) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride ID"})
		return uuid.Nil, false
	}
	return rideID, true
}
