package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	awspkg "github.com/MightyWarner19/grainlly/pkg/aws"
	"github.com/MightyWarner19/grainlly/repository"
)

// OrderService turns a checkout request into a durable order and drives
// its fulfillment status afterwards.
type OrderService interface {
	Commit(ctx context.Context, userID string, req models.CheckoutRequest) (*models.Order, error)
	SetStatus(ctx context.Context, orderID, status string) (*models.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID string, page, limit int) ([]models.Order, models.PaginationMeta, error)
	ListAllOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, models.PaginationMeta, error)
	ApplyPaymentOutcome(ctx context.Context, ev models.PaymentEvent) error
}

type OrderServiceConfig struct {
	StrictTransitions bool
	IdempotencyTTL    time.Duration
}

type orderServiceImpl struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	addresses repository.AddressRepository
	idem      repository.IdempotencyRepository
	carts     CartService
	payments  PaymentService
	pricer    Pricer
	notify    dispatcher
	cfg       OrderServiceConfig
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
}

type OrderServiceDeps struct {
	Orders      repository.OrderRepository
	Products    repository.ProductRepository
	Addresses   repository.AddressRepository
	Idempotency repository.IdempotencyRepository
	Carts       CartService
	Payments    PaymentService
	Pricer      Pricer
	Notifier    Notifier
	Metrics     awspkg.MetricsRecorder
	Logger      *zap.Logger
}

func NewOrderService(deps OrderServiceDeps, cfg OrderServiceConfig) OrderService {
	if cfg.IdempotencyTTL == 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &orderServiceImpl{
		orders:    deps.Orders,
		products:  deps.Products,
		addresses: deps.Addresses,
		idem:      deps.Idempotency,
		carts:     deps.Carts,
		payments:  deps.Payments,
		pricer:    deps.Pricer,
		notify:    dispatcher{notifier: deps.Notifier, metrics: deps.Metrics, logger: deps.Logger},
		cfg:       cfg,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// mergeItems validates checkout lines and folds repeated products into one
// line, keeping first-seen order.
func mergeItems(items []models.CheckoutItem) ([]primitive.ObjectID, map[primitive.ObjectID]int, error) {
	order := make([]primitive.ObjectID, 0, len(items))
	qty := make(map[primitive.ObjectID]int, len(items))
	for _, it := range items {
		oid, ok := parseObjectID(it.ProductID)
		if !ok {
			return nil, nil, apperrors.InvalidReference(it.ProductID)
		}
		if it.Quantity <= 0 {
			return nil, nil, apperrors.Validation("quantity must be a positive integer")
		}
		if _, seen := qty[oid]; !seen {
			order = append(order, oid)
		}
		qty[oid] += it.Quantity
	}
	return order, qty, nil
}

func idempotencyKey(userID, key string) string {
	return userID + ":" + key
}

// replay returns the order an earlier request with the same key produced.
func (s *orderServiceImpl) replay(ctx context.Context, userID, key string) *models.Order {
	if s.idem == nil || key == "" {
		return nil
	}
	orderID, err := s.idem.Get(ctx, idempotencyKey(userID, key))
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	oid, ok := parseObjectID(orderID)
	if !ok {
		return nil
	}
	o, err := s.orders.FindByID(ctx, oid)
	if err != nil || o.UserID != userID {
		return nil
	}
	return o
}

func (s *orderServiceImpl) Commit(ctx context.Context, userID string, req models.CheckoutRequest) (*models.Order, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if o := s.replay(ctx, userID, req.IdempotencyKey); o != nil {
		s.logger.Info("Checkout replayed", zap.String("user_id", userID), zap.String("order_id", o.ID.Hex()))
		return o, nil
	}

	if len(req.Items) == 0 || strings.TrimSpace(req.AddressID) == "" {
		return nil, apperrors.InvalidRequest("Items and address are required")
	}
	if !req.PaymentMethod.Valid() {
		return nil, apperrors.InvalidRequest("Payment method must be Online or COD")
	}
	productIDs, quantities, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	addressID, ok := parseObjectID(req.AddressID)
	if !ok {
		return nil, apperrors.InvalidRequest("Invalid address id")
	}
	address, err := s.addresses.FindForUser(ctx, addressID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Address not found")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	// Prices are re-read here; nothing the client sent about money is used.
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	lines := make([]QuoteLine, 0, len(productIDs))
	for _, id := range productIDs {
		p, ok := products[id]
		if !ok || !p.Purchasable() {
			return nil, apperrors.ProductUnavailable(id.Hex())
		}
		lines = append(lines, QuoteLine{Product: p, Quantity: quantities[id]})
	}
	quote := s.pricer.Quote(lines)

	if req.Amount != nil && *req.Amount != quote.Total.InexactFloat64() {
		s.logger.Warn("Client amount ignored",
			zap.String("user_id", userID),
			zap.Float64("client_amount", *req.Amount),
			zap.String("server_amount", quote.Total.StringFixed(2)),
		)
	}

	order := &models.Order{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		Items:         quote.Lines,
		AddressID:     address.ID,
		Address:       address.Snapshot(),
		Subtotal:      quote.Subtotal.InexactFloat64(),
		Surcharge:     quote.Surcharge.InexactFloat64(),
		Amount:        quote.Total.InexactFloat64(),
		Date:          s.now().UnixMilli(),
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.OrderStatusPending,
	}

	if req.PaymentMethod == models.PaymentMethodOnline {
		verification, err := s.payments.ResolveProof(ctx, userID, req.PaymentProof)
		if err != nil {
			return nil, err
		}
		if verification.AmountMinor != MinorUnits(quote.Total) {
			s.logger.Warn("Verified payment amount does not match order total",
				zap.String("user_id", userID),
				zap.String("gateway_order_id", verification.GatewayOrderID),
				zap.Int64("paid_minor", verification.AmountMinor),
				zap.Int64("order_minor", MinorUnits(quote.Total)),
			)
			return nil, apperrors.PaymentVerification("Payment amount does not match order total")
		}
		if err := s.payments.ClaimForOrder(ctx, verification.GatewayOrderID, order.ID.Hex()); err != nil {
			return nil, err
		}
		order.PaymentStatus = models.PaymentStatusPaid
		order.GatewayOrderID = verification.GatewayOrderID
		order.GatewayPaymentID = verification.GatewayPaymentID
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if order.GatewayOrderID != "" {
			s.payments.ReleaseClaim(ctx, order.GatewayOrderID, order.ID.Hex())
		}
		s.logger.Error("Failed to persist order", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Storage(err)
	}

	// The order is durable from here on; later failures are logged only.
	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Warn("Cart clear after checkout failed", zap.String("user_id", userID), zap.Error(err))
	}
	if s.idem != nil && req.IdempotencyKey != "" {
		if err := s.idem.Set(ctx, idempotencyKey(userID, req.IdempotencyKey), order.ID.Hex(), s.cfg.IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.String("order_id", order.ID.Hex()), zap.Error(err))
		}
	}

	s.recordOrder(ctx, order)
	s.notify.dispatch(ctx, models.EventOrderCreated, orderEvent(models.EventOrderCreated, order, req.ContactEmail))

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", userID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Float64("amount", order.Amount),
	)
	return order, nil
}

func (s *orderServiceImpl) recordOrder(ctx context.Context, o *models.Order) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	dims := map[string]string{"PaymentMethod": string(o.PaymentMethod)}
	_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersCreated, dims)
	_ = s.metrics.RecordValue(ctx, awspkg.MetricOrderAmount, o.Amount, dims)
	_ = s.metrics.RecordCount(ctx, awspkg.MetricCartCheckouts, nil)
}

func orderEvent(event string, o *models.Order, contactEmail string) models.OrderEvent {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return models.OrderEvent{
		Event:         event,
		OrderID:       o.ID.Hex(),
		UserID:        o.UserID,
		ContactEmail:  contactEmail,
		Amount:        o.Amount,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		ItemCount:     count,
		Date:          o.Date,
	}
}

func (s *orderServiceImpl) SetStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	oid, ok := parseObjectID(orderID)
	if !ok {
		return nil, apperrors.Validation("Invalid order id")
	}
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("Invalid status %q", status))
	}

	if s.cfg.StrictTransitions {
		current, err := s.orders.FindByID(ctx, oid)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		if err != nil {
			return nil, apperrors.Storage(err)
		}
		if !CanTransition(current.Status, next) {
			return nil, apperrors.Validation(fmt.Sprintf("Cannot move order from %s to %s", current.Status, next))
		}
	}

	updated, err := s.orders.UpdateStatus(ctx, oid, next)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperrors.Storage(err)
	}

	s.logger.Info("Order status updated", zap.String("order_id", orderID), zap.String("status", string(next)))
	s.notify.dispatch(ctx, models.EventOrderStatusChanged, orderEvent(models.EventOrderStatusChanged, updated, ""))
	return updated, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	oid, ok := parseObjectID(orderID)
	if !ok {
		return nil, apperrors.Validation("Invalid order id")
	}
	o, err := s.orders.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	// Other users' orders are indistinguishable from missing ones.
	if o.UserID != userID {
		return nil, apperrors.NotFound("Order not found")
	}
	return o, nil
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string, page, limit int) ([]models.Order, models.PaginationMeta, error) {
	if userID == "" {
		return nil, models.PaginationMeta{}, apperrors.ErrUnauthorized
	}
	return s.list(ctx, models.OrderFilter{UserID: userID, Page: page, Limit: limit})
}

func (s *orderServiceImpl) ListAllOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, models.PaginationMeta, error) {
	return s.list(ctx, f)
}

func (s *orderServiceImpl) list(ctx context.Context, f models.OrderFilter) ([]models.Order, models.PaginationMeta, error) {
	f.Page, f.Limit = pageBounds(f.Page, f.Limit)
	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, models.PaginationMeta{}, apperrors.Storage(err)
	}
	if f.All {
		return orders, models.NewPaginationMeta(1, len(orders), total), nil
	}
	return orders, models.NewPaginationMeta(f.Page, f.Limit, total), nil
}

// ApplyPaymentOutcome mirrors a gateway notification onto orders paid
// through that gateway order. Paid orders never regress to Failed.
func (s *orderServiceImpl) ApplyPaymentOutcome(ctx context.Context, ev models.PaymentEvent) error {
	status := models.PaymentStatusFailed
	if ev.Type == models.EventPaymentSucceeded {
		status = models.PaymentStatusPaid
	}
	n, err := s.orders.UpdatePaymentByGatewayOrder(ctx, ev.GatewayOrderID, status, ev.GatewayPaymentID)
	if err != nil {
		return err
	}
	s.logger.Info("Order payment status synced",
		zap.String("gateway_order_id", ev.GatewayOrderID),
		zap.String("payment_status", string(status)),
		zap.Int64("orders", n),
	)
	return nil
}

func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
