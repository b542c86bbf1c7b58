package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/MightyWarner19/grainlly/models"
)

// StripeGateway creates PaymentIntents and verifies webhook deliveries.
type StripeGateway struct {
	webhookSecret string
	newIntent     func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret, newIntent: paymentintent.New}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.AddMetadata("receipt", receipt)

	pi, err := g.newIntent(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// ParseWebhook checks the Stripe-Signature header and translates
// PaymentIntent outcomes into a PaymentEvent. Unhandled event types return
// a nil event.
func (g *StripeGateway) ParseWebhook(r *http.Request) (*models.PaymentEvent, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), g.webhookSecret)
	if err != nil {
		return nil, err
	}

	var typ string
	switch event.Type {
	case "payment_intent.succeeded":
		typ = models.EventPaymentSucceeded
	case "payment_intent.payment_failed":
		typ = models.EventPaymentFailed
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, err
	}
	out := &models.PaymentEvent{Type: typ, GatewayOrderID: pi.ID}
	if pi.LatestCharge != nil {
		out.GatewayPaymentID = pi.LatestCharge.ID
	}
	if pi.LastPaymentError != nil {
		out.Reason = pi.LastPaymentError.Msg
	}
	return out, nil
}
