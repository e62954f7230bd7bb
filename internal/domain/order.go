package domain

import "time"

// OrderStatus describes the lifecycle of an order.
type OrderStatus string

const (
	// OrderStatusPending — the order is persisted but payment has not been confirmed.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPaid — the payment provider confirmed the charge.
	OrderStatusPaid OrderStatus = "PAID"
	// OrderStatusCancelled — the order was cancelled before completion.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether the status is one of the supported values.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// OrderItem is a single line of an order. PriceMinor is a snapshot of the
// product price taken at creation time and is never recomputed from live
// product data afterwards.
type OrderItem struct {
	ID         string
	OrderID    string
	ProductID  int64
	Quantity   int32
	PriceMinor int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Order aggregates the order state and its line items. Items are owned
// exclusively by the order and are removed together with it.
type Order struct {
	ID string
	// TotalAmountMinor is the order total in minor currency units.
	TotalAmountMinor int64
	TotalItems       int32
	Status           OrderStatus
	Paid             bool
	PaidAt           *time.Time
	// StripeChargeID holds the external payment reference once the
	// payment provider confirms the charge.
	StripeChargeID string
	Items          []OrderItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateInvariants checks the aggregate invariants and returns every violation found.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if !o.Status.Valid() {
		errs = append(errs, ErrStatusInvalid)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalAmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	if o.Paid && (o.Status != OrderStatusPaid || o.PaidAt == nil) {
		errs = append(errs, ErrPaidStateInconsistent)
	}

	// Totals must match the item snapshot sums: qty*price and qty.
	var amount int64
	var count int32
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQuantityInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		amount += int64(item.Quantity) * item.PriceMinor
		count += item.Quantity
	}
	if amount != o.TotalAmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}
	if count != o.TotalItems {
		errs = append(errs, ErrTotalItemsMismatch)
	}

	return errs
}

// Receipt is the record created when a payment succeeds.
type Receipt struct {
	ID         string
	OrderID    string
	ReceiptURL string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
