package kafka

import (
	"time"
)

// EventType identifies a published order event.
type EventType string

const (
	EventTypeOrderCreated          EventType = "order.created"
	EventTypeOrderStatusChanged    EventType = "order.status_changed"
	EventTypeOrderPaid             EventType = "order.paid"
	EventTypeOrderSessionRecreated EventType = "order.payment_session_recreated"
	EventTypeOrderExpired          EventType = "order.expired"
)

// Kafka topics.
const (
	TopicOrderEvents      = "orders.order.events"
	TopicPaymentSucceeded = "payments.payment.succeeded"
	TopicDeadLetterQueue  = "orders.dlq"
)

// Headers used by the consumer retry logic.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent is the payload published for every order state change.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// PaymentSucceededEvent is the payload consumed from the payments service.
type PaymentSucceededEvent struct {
	OrderID         string `json:"orderId"`
	StripePaymentID string `json:"stripePaymentId"`
	ReceiptURL      string `json:"receiptUrl"`
}

// NewOrderEvent builds an order event stamped with the current time.
func NewOrderEvent(eventType EventType, orderID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
