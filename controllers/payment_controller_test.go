package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
)

func paymentRouter(svc *MockPaymentService, webhooks WebhookParser, sink PaymentEventSink) *gin.Engine {
	r := newTestEngine()
	pc := NewPaymentController(svc, webhooks, sink, zap.NewNop())
	r.POST("/payment/webhook", pc.Webhook)
	user := r.Group("/", withUser("user-1", "customer", ""))
	user.POST("/payment/create-order", pc.CreateOrder)
	user.POST("/payment/verify", pc.Verify)
	return r
}

func TestPaymentController_CreateOrder(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("CreateGatewayOrder", mock.Anything, "user-1", 499.5).Return(&models.CreatePaymentOrderResponse{
		Success: true, OrderID: "order_1", Amount: 49950, Currency: "INR", KeyID: "rzp_key", Receipt: "receipt_1",
	}, nil)

	w := doJSON(paymentRouter(svc, nil, nil), http.MethodPost, "/payment/create-order", `{"amount":499.5}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"orderId":"order_1"`)
	assert.Contains(t, w.Body.String(), `"amount":49950`)
}

func TestPaymentController_CreateOrderInvalidAmount(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("CreateGatewayOrder", mock.Anything, "user-1", 0.0).
		Return(nil, apperrors.New(http.StatusBadRequest, apperrors.KindInvalidAmount, "Invalid amount", nil))

	w := doJSON(paymentRouter(svc, nil, nil), http.MethodPost, "/payment/create-order", `{"amount":0}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid amount"}`, w.Body.String())
}

func TestPaymentController_VerifyFailureOffersRetry(t *testing.T) {
	svc := new(MockPaymentService)
	req := models.VerifyPaymentRequest{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "bad"}
	svc.On("Verify", mock.Anything, "user-1", req).Return(nil, apperrors.PaymentVerification("Payment verification failed"))

	w := doJSON(paymentRouter(svc, nil, nil), http.MethodPost, "/payment/verify",
		`{"gatewayOrderId":"order_1","gatewayPaymentId":"pay_1","signature":"bad"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"retryPayment":true`)
}

func TestPaymentController_VerifyReturnsToken(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("Verify", mock.Anything, "user-1", mock.Anything).Return(&models.PaymentVerification{
		GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", AmountMinor: 100, Token: "tok",
	}, nil)

	w := doJSON(paymentRouter(svc, nil, nil), http.MethodPost, "/payment/verify",
		`{"gatewayOrderId":"order_1","gatewayPaymentId":"pay_1","signature":"sig"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok"`)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestPaymentController_Webhook(t *testing.T) {
	ev := &models.PaymentEvent{Type: models.EventPaymentSucceeded, GatewayOrderID: "pi_1", GatewayPaymentID: "ch_1"}

	t.Run("applies event", func(t *testing.T) {
		sink := &recordingSink{}
		w := doJSON(paymentRouter(new(MockPaymentService), stubWebhooks{event: ev}, sink), http.MethodPost, "/payment/webhook", `{}`)
		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, sink.events, 1)
		assert.Equal(t, "pi_1", sink.events[0].GatewayOrderID)
	})

	t.Run("bad signature", func(t *testing.T) {
		sink := &recordingSink{}
		w := doJSON(paymentRouter(new(MockPaymentService), stubWebhooks{err: assert.AnError}, sink), http.MethodPost, "/payment/webhook", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, sink.events)
	})

	t.Run("ignored event", func(t *testing.T) {
		sink := &recordingSink{}
		w := doJSON(paymentRouter(new(MockPaymentService), stubWebhooks{}, sink), http.MethodPost, "/payment/webhook", `{}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sink.events)
	})

	t.Run("not configured", func(t *testing.T) {
		w := doJSON(paymentRouter(new(MockPaymentService), nil, &recordingSink{}), http.MethodPost, "/payment/webhook", `{}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
