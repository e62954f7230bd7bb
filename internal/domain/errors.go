package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrItemsRequired — an order must contain at least one item.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// ErrItemQuantityInvalid — item quantity must be positive.
	ErrItemQuantityInvalid = errors.New("item quantity must be greater than zero")
	// ErrItemPriceInvalid — snapshot price must be non-negative.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrAmountNegative — the order total must be non-negative.
	ErrAmountNegative = errors.New("total_amount must be non-negative")
	// ErrAmountMismatch — order total does not equal the sum of item snapshots.
	ErrAmountMismatch = errors.New("order total does not match items sum")
	// ErrTotalItemsMismatch — total_items does not equal the sum of quantities.
	ErrTotalItemsMismatch = errors.New("total_items does not match items quantity sum")
	// ErrStatusInvalid — unknown order status value.
	ErrStatusInvalid = errors.New("order status is invalid")
	// ErrPaidStateInconsistent — paid=true requires status=PAID and paid_at set.
	ErrPaidStateInconsistent = errors.New("paid order must have status PAID and paid_at set")

	// ErrOrderNotFound is returned when no order exists for the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists is returned on a duplicate create for the same id.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrProductValidationUnavailable — the products service failed or was
	// unreachable; indistinguishable results mean the order is never created.
	ErrProductValidationUnavailable = errors.New("product validation unavailable")
	// ErrPaymentSessionFailed — the payments service failed to create a
	// session; the already-persisted order is kept as PENDING.
	ErrPaymentSessionFailed = errors.New("payment session creation failed")
	// ErrTransitionNotAllowed — the configured status policy rejected the transition.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	// ErrOutboxPublish is returned when publishing an outbox message failed.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// ProductNotFoundError reports the requested product ids that were absent
// from the validator response.
type ProductNotFoundError struct {
	ProductIDs []int64
}

func (e *ProductNotFoundError) Error() string {
	sorted := append([]int64(nil), e.ProductIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	ids := make([]string, 0, len(sorted))
	for _, id := range sorted {
		ids = append(ids, fmt.Sprintf("%d", id))
	}
	return "products not found: " + strings.Join(ids, ", ")
}

// IsProductNotFound reports whether err carries a ProductNotFoundError.
func IsProductNotFound(err error) bool {
	var pnf *ProductNotFoundError
	return errors.As(err, &pnf)
}
