package models

// Event names published on the notification channels.
const (
	EventOrderCreated       = "order/created"
	EventOrderStatusChanged = "order/status_changed"
	EventPaymentSucceeded   = "payment_succeeded"
	EventPaymentFailed      = "payment_failed"
)

// OrderEvent is the notification payload for order lifecycle events.
type OrderEvent struct {
	Event         string        `json:"event"`
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	ContactEmail  string        `json:"contact_email,omitempty"`
	Amount        float64       `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        OrderStatus   `json:"status"`
	ItemCount     int           `json:"item_count"`
	Date          int64         `json:"date"`
}

// PaymentEvent arrives from the payment events queue, possibly wrapped in an
// SNS envelope.
type PaymentEvent struct {
	Type             string `json:"type"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	Reason           string `json:"reason,omitempty"`
}
