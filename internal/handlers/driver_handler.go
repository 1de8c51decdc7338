package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moms2go/ride-backend/internal/middleware"
	"github.com/moms2go/ride-backend/internal/models"
	"github.com/moms2go/ride-backend/internal/services"
)

// DriverHandler handles the driver profile endpoints
type DriverHandler struct {
	driverService *services.DriverService
}

// NewDriverHandler creates a new DriverHandler
func NewDriverHandler(driverService *services.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// List returns drivers scoped to the caller's role: admins get the full
// roster, passengers a limited view of available drivers, drivers their own
// profile
// @Summary List drivers
// @Tags Drivers
// @Produce json
// @Success 200 {object} map[string]interface{} "Driver list"
// @Security BearerAuth
// @Router /api/v1/drivers [get]
func (h *DriverHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	switch userCtx.Role {
	case models.RoleAdmin:
		drivers, err := h.driverService.ListAll()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"drivers": drivers})

	case models.RolePassenger:
		drivers, err := h.driverService.ListAvailable()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"drivers": drivers})

	case models.RoleDriver:
		driver, err := h.driverService.Profile(userCtx.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"drivers": []models.Driver{*driver}})

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Unknown role"})
	}
}

// Profile returns the calling driver's own profile
// @Summary Get own driver profile
// @Tags Drivers
// @Produce json
// @Success 200 {object} models.Driver "Profile"
// @Security BearerAuth
// @Router /api/v1/drivers/me [get]
func (h *DriverHandler) Profile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	driver, err := h.driverService.Profile(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, driver)
}

// PendingOffers returns the calling driver's open ride offers
// @Summary List pending ride offers
// @Tags Drivers
// @Produce json
// @Success 200 {object} map[string]interface{} "Pending ride requests"
// @Security BearerAuth
// @Router /api/v1/drivers/requests [get]
func (h *DriverHandler) PendingOffers(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	requests, err := h.driverService.PendingOffers(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Update applies a role-specific driver update: drivers change their own
// status and position, admins approve and certify
// @Summary Update a driver
// @Tags Drivers
// @Accept json
// @Produce json
// @Success 200 {object} models.Driver "Updated driver"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Security BearerAuth
// @Router /api/v1/drivers [patch]
func (h *DriverHandler) Update(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	switch userCtx.Role {
	case models.RoleDriver:
		var update models.DriverSelfUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		driver, err := h.driverService.ApplySelfUpdate(userCtx.UserID, &update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, driver)

	case models.RoleAdmin:
		var update models.AdminDriverUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		driver, err := h.driverService.ApplyAdminUpdate(&update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, driver)

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Only drivers and admins may update driver profiles"})
	}
}
