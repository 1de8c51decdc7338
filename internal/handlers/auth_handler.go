package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/middleware"
	"github.com/moms2go/ride-backend/internal/models"
	"github.com/moms2go/ride-backend/internal/services"
)

// AuthHandler handles registration, login and token refresh
type AuthHandler struct {
	authService *services.AuthService
	audit       *services.AuditService
	logger      *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, audit *services.AuditService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		audit:       audit,
		logger:      logger,
	}
}

// Signup registers a new passenger or driver account
// @Summary Register a new account
// @Description Create a user with a passenger or driver profile and return a token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup request"
// @Success 201 {object} services.AuthResult "Account created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 409 {object} map[string]interface{} "Email already registered"
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.authService.Signup(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.audit.LogSignup(result.User.ID, result.User.Role, c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.logger.WithError(err).Warn("Failed to record signup audit event")
	}

	c.JSON(http.StatusCreated, result)
}

// Signin authenticates a user and returns a token pair
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.SigninRequest true "Credentials"
// @Success 200 {object} services.AuthResult "Authenticated"
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Router /api/v1/auth/signin [post]
func (h *AuthHandler) Signin(c *gin.Context) {
	var req models.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.authService.Signin(&req)
	if err != nil {
		if auditErr := h.audit.LogSignin(nil, req.Email, false, c.ClientIP(), c.Request.UserAgent()); auditErr != nil {
			h.logger.WithError(auditErr).Warn("Failed to record signin audit event")
		}
		respondError(c, err)
		return
	}

	if err := h.audit.LogSignin(&result.User.ID, req.Email, true, c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.logger.WithError(err).Warn("Failed to record signin audit event")
	}

	c.JSON(http.StatusOK, result)
}

// Refresh exchanges a refresh token for a fresh token pair
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest true "Refresh token"
// @Success 200 {object} services.AuthResult "New token pair"
// @Failure 401 {object} map[string]interface{} "Invalid refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	result, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	if err := h.audit.LogTokenRefresh(result.User.ID, true, c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.logger.WithError(err).Warn("Failed to record refresh audit event")
	}

	c.JSON(http.StatusOK, result)
}

// Activity returns the caller's recent security events
// @Summary Recent account activity
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Recent events"
// @Router /api/v1/auth/activity [get]
func (h *AuthHandler) Activity(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	events, err := h.audit.RecentEvents(userCtx.UserID, 20)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
