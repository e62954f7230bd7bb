package domain

import "time"

// ListFilter narrows and pages the order listing. A nil Status means all
// orders. Page is 1-based.
type ListFilter struct {
	Status *OrderStatus
	Page   int
	Limit  int
}

// OrderPage is one page of the order listing plus the pagination metadata
// the caller echoes back: Total counts every order matching the filter and
// LastPage is ceil(Total/Limit).
type OrderPage struct {
	Orders   []Order
	Total    int
	Page     int
	Limit    int
	LastPage int
}

// OrderRepository describes the order store.
type OrderRepository interface {
	// Create persists the order and its items as a single atomic write:
	// either the order and every item become visible or nothing does.
	// Returns ErrOrderAlreadyExists on an id collision.
	Create(order Order) (Order, error)
	// List returns one page of orders (items excluded) matching the filter,
	// in a stable creation order.
	List(filter ListFilter) (OrderPage, error)
	// Get returns the order without its items, or ErrOrderNotFound.
	Get(id string) (Order, error)
	// GetWithItems returns the order including its items, or ErrOrderNotFound.
	GetWithItems(id string) (Order, error)
	// UpdateStatus resolves the order first (ErrOrderNotFound if absent) and
	// applies the transition. A same-status request is an idempotent no-op
	// returning the current row unchanged.
	UpdateStatus(id string, status OrderStatus) (Order, error)
	// RecordPaymentSuccess marks the order paid (paid=true, paid_at=now,
	// status=PAID, charge id stored) and creates the associated receipt
	// record in the same write. An already-paid order is left unchanged.
	RecordPaymentSuccess(orderID, stripeChargeID, receiptURL string) (Order, error)
	// ListStalePending returns up to limit unpaid PENDING orders created
	// before cutoff, oldest first. Feed for the payment-session reconciler.
	ListStalePending(cutoff time.Time, limit int) ([]Order, error)
}
