package domain

import (
	"errors"
	"testing"
)

func TestPermissivePolicy(t *testing.T) {
	policy := PermissivePolicy{}

	transitions := [][2]OrderStatus{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusPaid},
	}
	for _, tr := range transitions {
		if err := policy.CanTransition(tr[0], tr[1]); err != nil {
			t.Fatalf("expected %s -> %s allowed, got %v", tr[0], tr[1], err)
		}
	}

	if err := policy.CanTransition(OrderStatusPending, "SHIPPED"); !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("expected ErrStatusInvalid, got %v", err)
	}
}

func TestStrictPolicy(t *testing.T) {
	policy := StrictPolicy{}

	if err := policy.CanTransition(OrderStatusPending, OrderStatusPaid); err != nil {
		t.Fatalf("expected pending -> paid allowed, got %v", err)
	}
	if err := policy.CanTransition(OrderStatusPending, OrderStatusCancelled); err != nil {
		t.Fatalf("expected pending -> cancelled allowed, got %v", err)
	}
	// Same-state requests stay permitted so repository idempotence is reachable.
	if err := policy.CanTransition(OrderStatusPaid, OrderStatusPaid); err != nil {
		t.Fatalf("expected paid -> paid allowed, got %v", err)
	}

	if err := policy.CanTransition(OrderStatusPaid, OrderStatusPending); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
	if err := policy.CanTransition(OrderStatusCancelled, OrderStatusPaid); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
}
