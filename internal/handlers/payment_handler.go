package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/middleware"
	"github.com/moms2go/ride-backend/internal/models"
	"github.com/moms2go/ride-backend/internal/services"
)

// PaymentHandler handles payment initiation and the Stripe webhook
type PaymentHandler struct {
	paymentService *services.PaymentService
	stripeService  *services.StripeService
	audit          *services.AuditService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(
	paymentService *services.PaymentService,
	stripeService *services.StripeService,
	audit *services.AuditService,
	logger *logrus.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		stripeService:  stripeService,
		audit:          audit,
		logger:         logger,
	}
}

// CreateIntent starts a payment for the caller's completed ride
// @Summary Create a payment intent
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.CreateIntentRequest true "Payment request"
// @Success 201 {object} services.IntentResult "Intent created"
// @Failure 409 {object} map[string]interface{} "Ride not completed or already paid"
// @Failure 502 {object} map[string]interface{} "Payment gateway failure"
// @Security BearerAuth
// @Router /api/v1/payments/intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.paymentService.CreateIntent(userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// webhookEvent is the subset of a Stripe event we consume
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// Webhook applies Stripe payment events. The raw body is verified against
// the Stripe-Signature header before anything is parsed; redelivered events
// are acknowledged without re-applying.
// @Summary Stripe webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Event processed"
// @Failure 400 {object} map[string]interface{} "Bad signature or payload"
// @Router /api/v1/payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if err := h.stripeService.VerifyWebhookSignature(payload, c.GetHeader("Stripe-Signature")); err != nil {
		h.logger.WithError(err).WithField("ip", c.ClientIP()).Warn("Rejected webhook with bad signature")
		if auditErr := h.audit.LogWebhookReceived("unknown", "", c.ClientIP(), false); auditErr != nil {
			h.logger.WithError(auditErr).Warn("Failed to record webhook audit event")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	intentID := event.Data.Object.ID
	if auditErr := h.audit.LogWebhookReceived(event.Type, intentID, c.ClientIP(), true); auditErr != nil {
		h.logger.WithError(auditErr).Warn("Failed to record webhook audit event")
	}

	switch event.Type {
	case "payment_intent.succeeded":
		err = h.paymentService.HandleIntentSucceeded(intentID)
	case "payment_intent.payment_failed":
		err = h.paymentService.HandleIntentFailed(intentID)
	default:
		// Unhandled event types are acknowledged so Stripe stops retrying.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
