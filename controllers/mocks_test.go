package controllers

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/MightyWarner19/grainlly/models"
)

type MockCartService struct{ mock.Mock }

func (m *MockCartService) AddItem(ctx context.Context, userID, productID string, delta int) (*models.Cart, error) {
	args := m.Called(ctx, userID, productID, delta)
	c, _ := args.Get(0).(*models.Cart)
	return c, args.Error(1)
}

func (m *MockCartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	args := m.Called(ctx, userID, productID, quantity)
	c, _ := args.Get(0).(*models.Cart)
	return c, args.Error(1)
}

func (m *MockCartService) Price(ctx context.Context, userID string) (*models.CartSummary, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*models.CartSummary)
	return s, args.Error(1)
}

func (m *MockCartService) Reconcile(ctx context.Context, userID string) (*models.Cart, bool, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(*models.Cart)
	return c, args.Bool(1), args.Error(2)
}

func (m *MockCartService) Clear(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) Commit(ctx context.Context, userID string, req models.CheckoutRequest) (*models.Order, error) {
	args := m.Called(ctx, userID, req)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) SetStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	args := m.Called(ctx, orderID, status)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	args := m.Called(ctx, userID, orderID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) ListUserOrders(ctx context.Context, userID string, page, limit int) ([]models.Order, models.PaginationMeta, error) {
	args := m.Called(ctx, userID, page, limit)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Get(1).(models.PaginationMeta), args.Error(2)
}

func (m *MockOrderService) ListAllOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, models.PaginationMeta, error) {
	args := m.Called(ctx, f)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Get(1).(models.PaginationMeta), args.Error(2)
}

func (m *MockOrderService) ApplyPaymentOutcome(ctx context.Context, ev models.PaymentEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type MockPaymentService struct{ mock.Mock }

func (m *MockPaymentService) CreateGatewayOrder(ctx context.Context, userID string, amount float64) (*models.CreatePaymentOrderResponse, error) {
	args := m.Called(ctx, userID, amount)
	r, _ := args.Get(0).(*models.CreatePaymentOrderResponse)
	return r, args.Error(1)
}

func (m *MockPaymentService) Verify(ctx context.Context, userID string, req models.VerifyPaymentRequest) (*models.PaymentVerification, error) {
	args := m.Called(ctx, userID, req)
	r, _ := args.Get(0).(*models.PaymentVerification)
	return r, args.Error(1)
}

func (m *MockPaymentService) ResolveProof(ctx context.Context, userID string, proof *models.PaymentProof) (*models.PaymentVerification, error) {
	args := m.Called(ctx, userID, proof)
	r, _ := args.Get(0).(*models.PaymentVerification)
	return r, args.Error(1)
}

func (m *MockPaymentService) ClaimForOrder(ctx context.Context, gatewayOrderID, orderID string) error {
	return m.Called(ctx, gatewayOrderID, orderID).Error(0)
}

func (m *MockPaymentService) ReleaseClaim(ctx context.Context, gatewayOrderID, orderID string) {
	m.Called(ctx, gatewayOrderID, orderID)
}

func (m *MockPaymentService) RecordGatewayOutcome(ctx context.Context, ev models.PaymentEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type stubWebhooks struct {
	event *models.PaymentEvent
	err   error
}

func (s stubWebhooks) ParseWebhook(*http.Request) (*models.PaymentEvent, error) {
	return s.event, s.err
}

type recordingSink struct {
	events []models.PaymentEvent
	err    error
}

func (r *recordingSink) Handle(_ context.Context, ev models.PaymentEvent) error {
	r.events = append(r.events, ev)
	return r.err
}
