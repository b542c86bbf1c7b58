package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/middleware"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/services"
)

// WebhookParser authenticates a gateway callback and maps it to a payment
// event. A nil event means the callback carries nothing to act on.
type WebhookParser interface {
	ParseWebhook(r *http.Request) (*models.PaymentEvent, error)
}

// PaymentEventSink applies a gateway payment outcome.
type PaymentEventSink interface {
	Handle(ctx context.Context, ev models.PaymentEvent) error
}

type PaymentController struct {
	payments services.PaymentService
	webhooks WebhookParser
	events   PaymentEventSink
	logger   *zap.Logger
}

// NewPaymentController wires the payment routes. webhooks may be nil when the
// configured gateway has no webhook support.
func NewPaymentController(payments services.PaymentService, webhooks WebhookParser, events PaymentEventSink, logger *zap.Logger) *PaymentController {
	return &PaymentController{payments: payments, webhooks: webhooks, events: events, logger: logger}
}

func (pc *PaymentController) CreateOrder(c *gin.Context) {
	var req models.CreatePaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	resp, err := pc.payments.CreateGatewayOrder(c.Request.Context(), middleware.GetUserID(c), req.Amount)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Verify checks the gateway signature and hands back a verification token
// for checkout.
func (pc *PaymentController) Verify(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	result, err := pc.payments.Verify(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "Payment verified",
		"gatewayOrderId":   result.GatewayOrderID,
		"gatewayPaymentId": result.GatewayPaymentID,
		"token":            result.Token,
	})
}

func (pc *PaymentController) Webhook(c *gin.Context) {
	if pc.webhooks == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Webhooks not enabled"})
		return
	}

	ev, err := pc.webhooks.ParseWebhook(c.Request)
	if err != nil {
		pc.logger.Warn("Webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid webhook"})
		return
	}
	if ev == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ignored"})
		return
	}

	if err := pc.events.Handle(c.Request.Context(), *ev); err != nil {
		pc.logger.Error("Failed to apply webhook payment event",
			zap.String("type", ev.Type),
			zap.String("gateway_order_id", ev.GatewayOrderID),
			zap.Error(err),
		)
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Received"})
}
