package domain

// StatusTransitionPolicy decides whether an order may move between two
// statuses. The repository stays policy-free beyond the same-status no-op;
// tightening the transition table is a caller decision, so the policy is
// injected where status changes are requested.
type StatusTransitionPolicy interface {
	CanTransition(from, to OrderStatus) error
}

// PermissivePolicy allows every transition between valid statuses. This is
// the historical behavior of the service: nothing beyond same-state
// idempotence was ever enforced.
type PermissivePolicy struct{}

func (PermissivePolicy) CanTransition(from, to OrderStatus) error {
	if !to.Valid() {
		return ErrStatusInvalid
	}
	return nil
}

// StrictPolicy freezes the terminal states: no transition away from PAID
// or CANCELLED is allowed.
type StrictPolicy struct{}

func (StrictPolicy) CanTransition(from, to OrderStatus) error {
	if !to.Valid() {
		return ErrStatusInvalid
	}
	if from == to {
		return nil
	}
	if from == OrderStatusPaid || from == OrderStatusCancelled {
		return ErrTransitionNotAllowed
	}
	return nil
}

var (
	_ StatusTransitionPolicy = PermissivePolicy{}
	_ StatusTransitionPolicy = StrictPolicy{}
)
