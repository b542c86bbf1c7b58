package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/MightyWarner19/grainlly/models"
	awspkg "github.com/MightyWarner19/grainlly/pkg/aws"
)

// PaymentEventHandler applies asynchronous gateway outcomes, from the SQS
// queue or a webhook, to both the payment ledger and the orders.
type PaymentEventHandler struct {
	payments PaymentService
	orders   OrderService
	metrics  awspkg.MetricsRecorder
	logger   *zap.Logger
}

func NewPaymentEventHandler(payments PaymentService, orders OrderService, metrics awspkg.MetricsRecorder, logger *zap.Logger) *PaymentEventHandler {
	return &PaymentEventHandler{payments: payments, orders: orders, metrics: metrics, logger: logger}
}

// snsEnvelope is the wrapper SNS puts around messages delivered to SQS.
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// HandleMessage is an awspkg.MessageHandler. Malformed messages return nil
// so they are deleted instead of redelivered forever; storage failures
// return an error so SQS retries them.
func (h *PaymentEventHandler) HandleMessage(ctx context.Context, body string) error {
	raw := []byte(body)

	var env snsEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		raw = []byte(env.Message)
	}

	var ev models.PaymentEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.logger.Warn("Invalid payment event JSON", zap.Error(err))
		return nil
	}
	ev.Type = strings.TrimSpace(ev.Type)
	ev.GatewayOrderID = strings.TrimSpace(ev.GatewayOrderID)
	if ev.GatewayOrderID == "" || (ev.Type != models.EventPaymentSucceeded && ev.Type != models.EventPaymentFailed) {
		h.logger.Warn("Ignoring payment event", zap.String("type", ev.Type), zap.String("gateway_order_id", ev.GatewayOrderID))
		return nil
	}

	if err := h.Handle(ctx, ev); err != nil {
		return err
	}
	if h.metrics != nil && h.metrics.IsEnabled() {
		_ = h.metrics.RecordCount(ctx, awspkg.MetricSQSMessages, map[string]string{"Type": ev.Type})
	}
	return nil
}

// Handle records the outcome on the ledger first, then on the orders.
func (h *PaymentEventHandler) Handle(ctx context.Context, ev models.PaymentEvent) error {
	if err := h.payments.RecordGatewayOutcome(ctx, ev); err != nil {
		h.logger.Error("Failed to record payment outcome", zap.String("gateway_order_id", ev.GatewayOrderID), zap.Error(err))
		return err
	}
	if err := h.orders.ApplyPaymentOutcome(ctx, ev); err != nil {
		h.logger.Error("Failed to sync order payment status", zap.String("gateway_order_id", ev.GatewayOrderID), zap.Error(err))
		return err
	}
	return nil
}
