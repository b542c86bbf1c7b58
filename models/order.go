package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "Online"
	PaymentMethodCOD    PaymentMethod = "COD"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodCOD
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// OrderStatus is the fulfillment stage of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusProcessing     OrderStatus = "Processing"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
	OrderStatusReturned       OrderStatus = "Returned"
	OrderStatusRefunded       OrderStatus = "Refunded"
)

// OrderStatuses lists every fulfillment status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
	OrderStatusRefunded,
}

// ParseOrderStatus accepts the wire value, case-insensitively, plus the
// compact "OutForDelivery" spelling.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, st := range OrderStatuses {
		if strings.ToLower(strings.ReplaceAll(string(st), " ", "")) == norm {
			return st, true
		}
	}
	return "", false
}

// OrderItem is one line of an order, priced at commit time.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	UnitPrice float64            `bson:"unit_price" json:"unitPrice"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"user_id" json:"userId"`
	Items            []OrderItem        `bson:"items" json:"items"`
	AddressID        primitive.ObjectID `bson:"address_id" json:"addressId"`
	Address          AddressSnapshot    `bson:"address" json:"address"`
	Subtotal         float64            `bson:"subtotal" json:"subtotal"`
	Surcharge        float64            `bson:"surcharge" json:"surcharge"`
	Amount           float64            `bson:"amount" json:"amount"`
	Date             int64              `bson:"date" json:"date"`
	PaymentMethod    PaymentMethod      `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus    PaymentStatus      `bson:"payment_status" json:"paymentStatus"`
	Status           OrderStatus        `bson:"status" json:"status"`
	GatewayOrderID   string             `bson:"gateway_order_id,omitempty" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string             `bson:"gateway_payment_id,omitempty" json:"gatewayPaymentId,omitempty"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}

type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PaymentProof is either a verification token or the raw gateway triple.
type PaymentProof struct {
	Token            string `json:"token,omitempty"`
	GatewayOrderID   string `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string `json:"gatewayPaymentId,omitempty"`
	Signature        string `json:"signature,omitempty"`
}

// Empty reports whether no proof material was supplied.
func (p *PaymentProof) Empty() bool {
	return p == nil || (p.Token == "" && p.GatewayOrderID == "" && p.GatewayPaymentID == "" && p.Signature == "")
}

// CheckoutRequest is the body of POST /checkout. Amount is accepted for
// compatibility with older clients and ignored.
type CheckoutRequest struct {
	AddressID     string         `json:"addressId"`
	Items         []CheckoutItem `json:"items"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	PaymentProof  *PaymentProof  `json:"paymentProof,omitempty"`
	Amount        *float64       `json:"amount,omitempty"`

	// Set from identity claims, never from the body.
	ContactEmail   string `json:"-"`
	IdempotencyKey string `json:"-"`
}

type UpdateStatusRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID string
	All    bool
	Page   int
	Limit  int
}
