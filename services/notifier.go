package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"

	"github.com/MightyWarner19/grainlly/models"
	awspkg "github.com/MightyWarner19/grainlly/pkg/aws"
	"github.com/MightyWarner19/grainlly/sender"
)

// Notifier delivers a named event. Delivery is best-effort: callers log
// failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, event string, payload interface{}) error
}

// MultiNotifier fans an event out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event string, payload interface{}) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// envelope is the wire shape on SNS and Kafka.
type envelope struct {
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(envelope{Event: event, Timestamp: time.Now().UnixMilli(), Data: payload})
}

// SNSNotifier publishes events to one SNS topic.
type SNSNotifier struct {
	publisher awspkg.SNSPublisher
	topicArn  string
}

func NewSNSNotifier(publisher awspkg.SNSPublisher, topicArn string) *SNSNotifier {
	return &SNSNotifier{publisher: publisher, topicArn: topicArn}
}

func (n *SNSNotifier) Notify(ctx context.Context, event string, payload interface{}) error {
	body, err := marshalEnvelope(event, payload)
	if err != nil {
		return err
	}
	return n.publisher.PublishWithAttributes(ctx, n.topicArn, body, map[string]string{"event_type": event})
}

// EventPublisher is satisfied by the Kafka producer.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, payload interface{}) error
}

// KafkaNotifier writes events keyed by order id when one is present.
type KafkaNotifier struct {
	producer EventPublisher
}

func NewKafkaNotifier(producer EventPublisher) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

func (n *KafkaNotifier) Notify(ctx context.Context, event string, payload interface{}) error {
	key := event
	if oe, ok := payload.(models.OrderEvent); ok {
		key = oe.OrderID
	}
	return n.producer.PublishJSON(ctx, key, envelope{Event: event, Timestamp: time.Now().UnixMilli(), Data: payload})
}

// EmailNotifier sends the order confirmation to the customer and a copy to
// the store admin. Other events are ignored.
type EmailNotifier struct {
	sender     sender.EmailSender
	adminEmail string
}

func NewEmailNotifier(s sender.EmailSender, adminEmail string) *EmailNotifier {
	return &EmailNotifier{sender: s, adminEmail: adminEmail}
}

func (n *EmailNotifier) Notify(ctx context.Context, event string, payload interface{}) error {
	oe, ok := payload.(models.OrderEvent)
	if !ok || event != models.EventOrderCreated {
		return nil
	}

	var errs []error
	if oe.ContactEmail != "" {
		subject := "Your Grainlly order " + oe.OrderID + " is confirmed"
		body := fmt.Sprintf("<p>Thank you for your order!</p><p>Order <b>%s</b> for ₹%.2f (%s) has been placed.</p>",
			html.EscapeString(oe.OrderID), oe.Amount, html.EscapeString(string(oe.PaymentMethod)))
		if _, err := n.sender.SendEmail(ctx, oe.ContactEmail, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("customer email: %w", err))
		}
	}
	if n.adminEmail != "" {
		subject := "New order " + oe.OrderID
		body := fmt.Sprintf("<p>New order <b>%s</b> from user %s: %d item(s), ₹%.2f, %s / %s.</p>",
			html.EscapeString(oe.OrderID), html.EscapeString(oe.UserID), oe.ItemCount, oe.Amount,
			html.EscapeString(string(oe.PaymentMethod)), html.EscapeString(string(oe.PaymentStatus)))
		if _, err := n.sender.SendEmail(ctx, n.adminEmail, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("admin email: %w", err))
		}
	}
	return errors.Join(errs...)
}

// dispatcher runs notifications with their own deadline so a slow channel
// cannot hold the request, and never returns an error.
type dispatcher struct {
	notifier Notifier
	metrics  awspkg.MetricsRecorder
	logger   *zap.Logger
	timeout  time.Duration
}

func (d dispatcher) dispatch(ctx context.Context, event string, payload interface{}) {
	if d.notifier == nil {
		return
	}
	timeout := d.timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := d.notifier.Notify(nctx, event, payload); err != nil {
		d.logger.Warn("Notification delivery failed", zap.String("event", event), zap.Error(err))
		if d.metrics != nil && d.metrics.IsEnabled() {
			_ = d.metrics.RecordCount(nctx, awspkg.MetricNotificationErrors, map[string]string{"Event": event})
		}
	}
}
