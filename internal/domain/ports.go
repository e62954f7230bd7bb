package domain

import "time"

// ProductValidator wraps the products service. It returns snapshots for
// the ids that exist on the remote side; ids missing from the result are
// "not found" and are the caller's concern, not an error. Any
// communication failure wraps ErrProductValidationUnavailable.
type ProductValidator interface {
	Validate(productIDs []int64) ([]ProductSnapshot, error)
}

// PaymentInitiator wraps the payments service. CreateSession requests a
// checkout session for an already-persisted order; failures wrap
// ErrPaymentSessionFailed and must not mutate order state.
type PaymentInitiator interface {
	CreateSession(orderID string, currency string, items []SessionItem) (PaymentSession, error)
}

// OutboxMessage holds one event awaiting publication.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats describes the current transactional-outbox backlog.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository stores events for later publication.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher pushes an event to the broker; must be idempotent.
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}
