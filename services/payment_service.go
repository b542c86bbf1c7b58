package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MightyWarner19/grainlly/common/auth"
	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	awspkg "github.com/MightyWarner19/grainlly/pkg/aws"
	"github.com/MightyWarner19/grainlly/repository"
)

// PaymentService reconciles client-reported gateway payments with the
// ledger before anything downstream trusts them.
type PaymentService interface {
	CreateGatewayOrder(ctx context.Context, userID string, amount float64) (*models.CreatePaymentOrderResponse, error)
	Verify(ctx context.Context, userID string, req models.VerifyPaymentRequest) (*models.PaymentVerification, error)
	// ResolveProof turns checkout payment proof into a verified payment.
	ResolveProof(ctx context.Context, userID string, proof *models.PaymentProof) (*models.PaymentVerification, error)
	ClaimForOrder(ctx context.Context, gatewayOrderID, orderID string) error
	ReleaseClaim(ctx context.Context, gatewayOrderID, orderID string)
	RecordGatewayOutcome(ctx context.Context, ev models.PaymentEvent) error
}

const releaseClaimTimeout = 5 * time.Second

type PaymentServiceConfig struct {
	KeyID    string
	Secret   string
	Currency string
	TokenTTL time.Duration
}

type paymentServiceImpl struct {
	gateway PaymentGateway
	repo    repository.PaymentRepository
	tokens  *auth.TokenManager
	cfg     PaymentServiceConfig
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
	now     func() time.Time
}

func NewPaymentService(gateway PaymentGateway, repo repository.PaymentRepository, tokens *auth.TokenManager, cfg PaymentServiceConfig, metrics awspkg.MetricsRecorder, logger *zap.Logger) PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 15 * time.Minute
	}
	return &paymentServiceImpl{
		gateway: gateway,
		repo:    repo,
		tokens:  tokens,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Sign returns the hex HMAC-SHA256 of "orderId|paymentId" under secret.
func Sign(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.
func VerifySignature(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := Sign(secret, gatewayOrderID, gatewayPaymentID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func (s *paymentServiceImpl) record(ctx context.Context, metric string) {
	if s.metrics != nil && s.metrics.IsEnabled() {
		_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Gateway": s.gateway.Name()})
	}
}

func (s *paymentServiceImpl) CreateGatewayOrder(ctx context.Context, userID string, amount float64) (*models.CreatePaymentOrderResponse, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	amountMinor := MinorUnits(decimal.NewFromFloat(amount))
	if amount <= 0 || amountMinor <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	receipt := fmt.Sprintf("receipt_%d", s.now().UnixMilli())
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amountMinor, s.cfg.Currency, receipt)
	if err != nil {
		s.logger.Error("Gateway order creation failed", zap.String("gateway", s.gateway.Name()), zap.Error(err))
		return nil, apperrors.New(http.StatusBadGateway, apperrors.KindInternal, "Payment gateway unavailable", err)
	}

	attempt := &models.PaymentAttempt{
		UserID:         userID,
		Gateway:        s.gateway.Name(),
		GatewayOrderID: gatewayOrderID,
		AmountMinor:    amountMinor,
		Currency:       s.cfg.Currency,
		Receipt:        receipt,
		Status:         models.PaymentAttemptInitiated,
	}
	if err := s.repo.Create(ctx, attempt); err != nil {
		s.logger.Error("Failed to persist payment attempt", zap.String("gateway_order_id", gatewayOrderID), zap.Error(err))
		return nil, apperrors.Storage(err)
	}

	s.record(ctx, awspkg.MetricPaymentsInitiated)
	s.logger.Info("Payment initiated",
		zap.String("user_id", userID),
		zap.String("gateway_order_id", gatewayOrderID),
		zap.Int64("amount_minor", amountMinor),
	)

	return &models.CreatePaymentOrderResponse{
		Success:  true,
		OrderID:  gatewayOrderID,
		Amount:   amountMinor,
		Currency: s.cfg.Currency,
		KeyID:    s.cfg.KeyID,
		Receipt:  receipt,
	}, nil
}

func (s *paymentServiceImpl) reject(ctx context.Context, gatewayOrderID, reason string) {
	if _, err := s.repo.Transition(ctx, gatewayOrderID, models.PaymentAttemptInitiated, models.PaymentAttemptRejected,
		map[string]interface{}{"failure_reason": reason}); err != nil {
		s.logger.Error("Failed to mark payment attempt rejected", zap.String("gateway_order_id", gatewayOrderID), zap.Error(err))
	}
	s.record(ctx, awspkg.MetricPaymentFailed)
}

// Verify checks the gateway signature and moves the attempt to Verified or
// Rejected. A rejected attempt is never retried; the client starts a new one.
func (s *paymentServiceImpl) Verify(ctx context.Context, userID string, req models.VerifyPaymentRequest) (*models.PaymentVerification, error) {
	gwOrder := strings.TrimSpace(req.GatewayOrderID)
	gwPayment := strings.TrimSpace(req.GatewayPaymentID)
	signature := strings.TrimSpace(req.Signature)

	if gwOrder == "" || gwPayment == "" || signature == "" {
		// Only the owner's incomplete submission burns the attempt.
		if gwOrder != "" {
			if attempt, err := s.repo.FindByGatewayOrderID(ctx, gwOrder); err == nil && attempt.UserID == userID {
				s.reject(ctx, gwOrder, "missing_fields")
			}
		}
		return nil, apperrors.ErrMissingFields
	}

	attempt, err := s.repo.FindByGatewayOrderID(ctx, gwOrder)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.PaymentVerification("Unknown payment order")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if attempt.UserID != userID {
		s.logger.Warn("Payment verification for another user's attempt", zap.String("gateway_order_id", gwOrder), zap.String("user_id", userID))
		return nil, apperrors.PaymentVerification("Unknown payment order")
	}

	switch attempt.Status {
	case models.PaymentAttemptRejected:
		return nil, apperrors.PaymentVerification("Payment was rejected, please start a new payment")
	case models.PaymentAttemptVerified:
		if attempt.GatewayPaymentID == gwPayment && VerifySignature(s.cfg.Secret, gwOrder, gwPayment, signature) {
			return s.verified(attempt)
		}
		return nil, apperrors.PaymentVerification("Payment verification failed")
	}

	if !VerifySignature(s.cfg.Secret, gwOrder, gwPayment, signature) {
		s.logger.Warn("Payment signature mismatch", zap.String("gateway_order_id", gwOrder))
		s.reject(ctx, gwOrder, "signature_mismatch")
		return nil, apperrors.PaymentVerification("Payment verification failed")
	}

	ok, err := s.repo.Transition(ctx, gwOrder, models.PaymentAttemptInitiated, models.PaymentAttemptVerified,
		map[string]interface{}{"gateway_payment_id": gwPayment})
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if !ok {
		// Lost a race with another verification or a webhook; re-read.
		current, err := s.repo.FindByGatewayOrderID(ctx, gwOrder)
		if err != nil {
			return nil, apperrors.Storage(err)
		}
		if current.Status != models.PaymentAttemptVerified || current.GatewayPaymentID != gwPayment {
			return nil, apperrors.PaymentVerification("Payment verification failed")
		}
	}
	attempt.Status = models.PaymentAttemptVerified
	attempt.GatewayPaymentID = gwPayment

	s.record(ctx, awspkg.MetricPaymentSucceeded)
	s.logger.Info("Payment verified", zap.String("user_id", userID), zap.String("gateway_order_id", gwOrder))
	return s.verified(attempt)
}

func (s *paymentServiceImpl) verified(attempt *models.PaymentAttempt) (*models.PaymentVerification, error) {
	token, err := s.tokens.IssuePaymentToken(attempt.UserID, attempt.GatewayOrderID, attempt.GatewayPaymentID, attempt.AmountMinor, s.cfg.TokenTTL)
	if err != nil {
		return nil, apperrors.New(http.StatusInternalServerError, apperrors.KindInternal, "Internal server error", err)
	}
	return &models.PaymentVerification{
		GatewayOrderID:   attempt.GatewayOrderID,
		GatewayPaymentID: attempt.GatewayPaymentID,
		AmountMinor:      attempt.AmountMinor,
		Token:            token,
	}, nil
}

func (s *paymentServiceImpl) ResolveProof(ctx context.Context, userID string, proof *models.PaymentProof) (*models.PaymentVerification, error) {
	if proof.Empty() {
		return nil, apperrors.ErrMissingFields
	}
	if proof.Token == "" {
		return s.Verify(ctx, userID, models.VerifyPaymentRequest{
			GatewayOrderID:   proof.GatewayOrderID,
			GatewayPaymentID: proof.GatewayPaymentID,
			Signature:        proof.Signature,
		})
	}

	claims, err := s.tokens.ParsePaymentToken(proof.Token)
	if err != nil {
		return nil, apperrors.PaymentVerification("Payment verification expired or invalid")
	}
	if claims.Subject != userID {
		return nil, apperrors.PaymentVerification("Payment verification failed")
	}

	// The token is only as good as the ledger row behind it.
	attempt, err := s.repo.FindByGatewayOrderID(ctx, claims.GatewayOrderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.PaymentVerification("Unknown payment order")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if attempt.Status != models.PaymentAttemptVerified || attempt.GatewayPaymentID != claims.GatewayPaymentID {
		return nil, apperrors.PaymentVerification("Payment verification failed")
	}

	return &models.PaymentVerification{
		GatewayOrderID:   claims.GatewayOrderID,
		GatewayPaymentID: claims.GatewayPaymentID,
		AmountMinor:      claims.AmountMinor,
		Token:            proof.Token,
	}, nil
}

func (s *paymentServiceImpl) ClaimForOrder(ctx context.Context, gatewayOrderID, orderID string) error {
	ok, err := s.repo.ClaimForOrder(ctx, gatewayOrderID, orderID)
	if err != nil {
		return apperrors.Storage(err)
	}
	if !ok {
		return apperrors.PaymentVerification("Payment has already been used for another order")
	}
	return nil
}

// ReleaseClaim is detached from the caller's deadline, which may already have
// expired by the time an insert fails.
func (s *paymentServiceImpl) ReleaseClaim(ctx context.Context, gatewayOrderID, orderID string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseClaimTimeout)
	defer cancel()
	if err := s.repo.ReleaseClaim(rctx, gatewayOrderID, orderID); err != nil {
		s.logger.Error("Failed to release payment claim",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

// RecordGatewayOutcome applies an asynchronous gateway notification to the
// ledger. Only Initiated attempts move; anything else is a duplicate.
func (s *paymentServiceImpl) RecordGatewayOutcome(ctx context.Context, ev models.PaymentEvent) error {
	var (
		to     models.PaymentAttemptStatus
		fields = map[string]interface{}{}
	)
	switch ev.Type {
	case models.EventPaymentSucceeded:
		to = models.PaymentAttemptVerified
		if ev.GatewayPaymentID != "" {
			fields["gateway_payment_id"] = ev.GatewayPaymentID
		}
	case models.EventPaymentFailed:
		to = models.PaymentAttemptRejected
		reason := ev.Reason
		if reason == "" {
			reason = "gateway_failed"
		}
		fields["failure_reason"] = reason
	default:
		return fmt.Errorf("unsupported payment event %q", ev.Type)
	}

	moved, err := s.repo.Transition(ctx, ev.GatewayOrderID, models.PaymentAttemptInitiated, to, fields)
	if err != nil {
		return err
	}
	if moved {
		if to == models.PaymentAttemptVerified {
			s.record(ctx, awspkg.MetricPaymentSucceeded)
		} else {
			s.record(ctx, awspkg.MetricPaymentFailed)
		}
	}
	s.logger.Info("Gateway payment outcome recorded",
		zap.String("gateway_order_id", ev.GatewayOrderID),
		zap.String("type", ev.Type),
		zap.Bool("transitioned", moved),
	)
	return nil
}
