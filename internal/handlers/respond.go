package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/services"
)

// respondError maps service and repository errors onto HTTP statuses. The
// error text is safe to surface; anything unmapped becomes an opaque 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrConflict), errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrDriverNotApproved),
		errors.Is(err, services.ErrDriverNotAvailable):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrGateway):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
