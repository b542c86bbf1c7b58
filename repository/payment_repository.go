package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MightyWarner19/grainlly/models"
)

// PaymentRepository is the ledger of gateway orders and their verification
// outcome.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.PaymentAttempt) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentAttempt, error)
	// Transition moves an attempt out of from; it reports false if the
	// attempt was no longer in that state.
	Transition(ctx context.Context, gatewayOrderID string, from, to models.PaymentAttemptStatus, fields map[string]interface{}) (bool, error)
	// ClaimForOrder links an unclaimed attempt to orderID. A verified
	// payment can back at most one order.
	ClaimForOrder(ctx context.Context, gatewayOrderID, orderID string) (bool, error)
	ReleaseClaim(ctx context.Context, gatewayOrderID, orderID string) error
}

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, p *models.PaymentAttempt) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormPaymentRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentAttempt, error) {
	var p models.PaymentAttempt
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPaymentRepository) Transition(ctx context.Context, gatewayOrderID string, from, to models.PaymentAttemptStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Model(&models.PaymentAttempt{}).
		Where("gateway_order_id = ? AND status = ?", gatewayOrderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormPaymentRepository) ClaimForOrder(ctx context.Context, gatewayOrderID, orderID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentAttempt{}).
		Where("gateway_order_id = ? AND status = ? AND (order_id IS NULL OR order_id = '')", gatewayOrderID, models.PaymentAttemptVerified).
		Update("order_id", orderID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormPaymentRepository) ReleaseClaim(ctx context.Context, gatewayOrderID, orderID string) error {
	return r.db.WithContext(ctx).Model(&models.PaymentAttempt{}).
		Where("gateway_order_id = ? AND order_id = ?", gatewayOrderID, orderID).
		Update("order_id", "").Error
}
