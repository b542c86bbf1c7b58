package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
)

func newPaymentService(gw PaymentGateway) (PaymentService, *fakePaymentRepo) {
	repo := newFakePaymentRepo()
	svc := NewPaymentService(gw, repo, newTokens(), PaymentServiceConfig{
		KeyID:    "rzp_test",
		Secret:   testSecret,
		Currency: "INR",
		TokenTTL: time.Minute,
	}, nil, zap.NewNop())
	return svc, repo
}

// seedAttempt stores an Initiated attempt as CreateGatewayOrder would.
func seedAttempt(repo *fakePaymentRepo, userID, gwOrder string, amountMinor int64) {
	_ = repo.Create(context.Background(), &models.PaymentAttempt{
		UserID:         userID,
		Gateway:        "mock",
		GatewayOrderID: gwOrder,
		AmountMinor:    amountMinor,
		Currency:       "INR",
		Status:         models.PaymentAttemptInitiated,
	})
}

func TestCreateGatewayOrder(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CreateOrder", mock.Anything, int64(16000), "INR", mock.AnythingOfType("string")).Return("order_abc", nil)
	svc, repo := newPaymentService(gw)

	resp, err := svc.CreateGatewayOrder(context.Background(), "u1", 160)
	require.NoError(t, err)
	assert.Equal(t, "order_abc", resp.OrderID)
	assert.Equal(t, int64(16000), resp.Amount)
	assert.Equal(t, "rzp_test", resp.KeyID)
	assert.Equal(t, models.PaymentAttemptInitiated, repo.get("order_abc").Status)
	gw.AssertExpectations(t)
}

func TestCreateGatewayOrder_InvalidAmount(t *testing.T) {
	gw := new(MockGateway)
	svc, _ := newPaymentService(gw)

	for _, amount := range []float64{0, -5, 0.001} {
		_, err := svc.CreateGatewayOrder(context.Background(), "u1", amount)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidAmount), "amount %v", amount)
	}
	gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateGatewayOrder_GatewayFailure(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout"))
	svc, repo := newPaymentService(gw)

	_, err := svc.CreateGatewayOrder(context.Background(), "u1", 10)
	assert.Error(t, err)
	assert.Empty(t, repo.attempts)
}

func TestVerify_Success(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "u1", "order_1", 16000)

	v, err := svc.Verify(context.Background(), "u1", models.VerifyPaymentRequest{
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        Sign(testSecret, "order_1", "pay_1"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, v.Token)
	assert.Equal(t, int64(16000), v.AmountMinor)

	attempt := repo.get("order_1")
	assert.Equal(t, models.PaymentAttemptVerified, attempt.Status)
	assert.Equal(t, "pay_1", attempt.GatewayPaymentID)
}

func TestVerify_MissingFields(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "u1", "order_1", 100)

	_, err := svc.Verify(context.Background(), "u1", models.VerifyPaymentRequest{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1"})
	assert.True(t, errors.Is(err, apperrors.ErrMissingFields))
	assert.Equal(t, models.PaymentAttemptRejected, repo.get("order_1").Status)
}

func TestVerify_SignatureMutationRejects(t *testing.T) {
	good := Sign(testSecret, "order_1", "pay_1")
	mutate := func(s string) string {
		b := []byte(s)
		if b[0] == 'a' {
			b[0] = 'b'
		} else {
			b[0] = 'a'
		}
		return string(b)
	}

	cases := map[string]models.VerifyPaymentRequest{
		"signature":  {GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: mutate(good)},
		"payment id": {GatewayOrderID: "order_1", GatewayPaymentID: mutate("pay_1"), Signature: good},
		"trailing":   {GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: good[:len(good)-1] + "x"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			svc, repo := newPaymentService(new(MockGateway))
			seedAttempt(repo, "u1", "order_1", 100)

			_, err := svc.Verify(context.Background(), "u1", req)
			assert.True(t, errors.Is(err, apperrors.ErrPaymentVerification))
			assert.Equal(t, models.PaymentAttemptRejected, repo.get("order_1").Status)
		})
	}
}

func TestVerify_OrderIDMutationRejects(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "u1", "order_2", 100)

	// Signature minted for order_1 presented against order_2.
	_, err := svc.Verify(context.Background(), "u1", models.VerifyPaymentRequest{
		GatewayOrderID:   "order_2",
		GatewayPaymentID: "pay_1",
		Signature:        Sign(testSecret, "order_1", "pay_1"),
	})
	assert.True(t, errors.Is(err, apperrors.ErrPaymentVerification))
}

func TestVerify_RejectedIsFinal(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "u1", "order_1", 100)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "u1", models.VerifyPaymentRequest{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "bad"})
	require.Error(t, err)

	_, err = svc.Verify(ctx, "u1", models.VerifyPaymentRequest{
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        Sign(testSecret, "order_1", "pay_1"),
	})
	assert.True(t, errors.Is(err, apperrors.ErrPaymentVerification))
	assert.Equal(t, models.PaymentAttemptRejected, repo.get("order_1").Status)
}

func TestVerify_OtherUsersAttempt(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "owner", "order_1", 100)

	_, err := svc.Verify(context.Background(), "intruder", models.VerifyPaymentRequest{
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        Sign(testSecret, "order_1", "pay_1"),
	})
	assert.True(t, errors.Is(err, apperrors.ErrPaymentVerification))
	assert.Equal(t, models.PaymentAttemptInitiated, repo.get("order_1").Status)
}

func TestVerify_OtherUsersMissingFieldsLeavesAttempt(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "owner", "order_1", 100)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "intruder", models.VerifyPaymentRequest{GatewayOrderID: "order_1"})
	assert.True(t, errors.Is(err, apperrors.ErrMissingFields))
	assert.Equal(t, models.PaymentAttemptInitiated, repo.get("order_1").Status)

	v, err := svc.Verify(ctx, "owner", models.VerifyPaymentRequest{
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        Sign(testSecret, "order_1", "pay_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "order_1", v.GatewayOrderID)
	assert.Equal(t, models.PaymentAttemptVerified, repo.get("order_1").Status)
}

func TestVerify_RepeatIsIdempotent(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "u1", "order_1", 100)
	req := models.VerifyPaymentRequest{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: Sign(testSecret, "order_1", "pay_1")}

	_, err := svc.Verify(context.Background(), "u1", req)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), "u1", req)
	assert.NoError(t, err)
}

func TestResolveProof_Token(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "u1", "order_1", 16000)
	v, err := svc.Verify(context.Background(), "u1", models.VerifyPaymentRequest{
		GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: Sign(testSecret, "order_1", "pay_1"),
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveProof(context.Background(), "u1", &models.PaymentProof{Token: v.Token})
	require.NoError(t, err)
	assert.Equal(t, "order_1", resolved.GatewayOrderID)
	assert.Equal(t, int64(16000), resolved.AmountMinor)

	_, err = svc.ResolveProof(context.Background(), "u2", &models.PaymentProof{Token: v.Token})
	assert.True(t, errors.Is(err, apperrors.ErrPaymentVerification))

	_, err = svc.ResolveProof(context.Background(), "u1", &models.PaymentProof{Token: v.Token + "x"})
	assert.True(t, errors.Is(err, apperrors.ErrPaymentVerification))
}

func TestResolveProof_Empty(t *testing.T) {
	svc, _ := newPaymentService(new(MockGateway))

	_, err := svc.ResolveProof(context.Background(), "u1", nil)
	assert.True(t, errors.Is(err, apperrors.ErrMissingFields))
}

func TestClaimForOrder_OnlyOnce(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "u1", "order_1", 100)
	_, err := svc.Verify(context.Background(), "u1", models.VerifyPaymentRequest{
		GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: Sign(testSecret, "order_1", "pay_1"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.ClaimForOrder(context.Background(), "order_1", "o1"))
	err = svc.ClaimForOrder(context.Background(), "order_1", "o2")
	assert.True(t, errors.Is(err, apperrors.ErrPaymentVerification))

	svc.ReleaseClaim(context.Background(), "order_1", "o1")
	assert.NoError(t, svc.ClaimForOrder(context.Background(), "order_1", "o2"))
}

func TestRecordGatewayOutcome(t *testing.T) {
	svc, repo := newPaymentService(new(MockGateway))
	seedAttempt(repo, "u1", "order_ok", 100)
	seedAttempt(repo, "u1", "order_bad", 100)
	ctx := context.Background()

	require.NoError(t, svc.RecordGatewayOutcome(ctx, models.PaymentEvent{Type: models.EventPaymentSucceeded, GatewayOrderID: "order_ok", GatewayPaymentID: "pay_9"}))
	require.NoError(t, svc.RecordGatewayOutcome(ctx, models.PaymentEvent{Type: models.EventPaymentFailed, GatewayOrderID: "order_bad"}))

	assert.Equal(t, models.PaymentAttemptVerified, repo.get("order_ok").Status)
	assert.Equal(t, "pay_9", repo.get("order_ok").GatewayPaymentID)
	assert.Equal(t, models.PaymentAttemptRejected, repo.get("order_bad").Status)
	assert.Equal(t, "gateway_failed", repo.get("order_bad").FailureReason)

	// Late failure after success is ignored.
	require.NoError(t, svc.RecordGatewayOutcome(ctx, models.PaymentEvent{Type: models.EventPaymentFailed, GatewayOrderID: "order_ok"}))
	assert.Equal(t, models.PaymentAttemptVerified, repo.get("order_ok").Status)

	assert.Error(t, svc.RecordGatewayOutcome(ctx, models.PaymentEvent{Type: "refund", GatewayOrderID: "order_ok"}))
}

func TestVerifySignature(t *testing.T) {
	sig := Sign(testSecret, "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature(testSecret, "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature(testSecret, "order_1|", "pay_1", sig))
}
