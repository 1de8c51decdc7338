package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moms2go/ride-backend/internal/middleware"
	"github.com/moms2go/ride-backend/internal/services"
)

// defaultNotificationLimit caps the inbox page size
const defaultNotificationLimit = 50

// NotificationHandler handles the in-app notification inbox
type NotificationHandler struct {
	notifier *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifier *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// List returns the caller's newest notifications
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Max notifications to return"
// @Success 200 {object} map[string]interface{} "Notification list"
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	notifications, err := h.notifier.List(userCtx.UserID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkAllRead marks every notification of the caller as read
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]interface{} "Marked read"
// @Security BearerAuth
// @Router /api/v1/notifications/read [patch]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.notifier.MarkAllRead(userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
