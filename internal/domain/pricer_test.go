package domain

import (
	"errors"
	"testing"
)

func TestPriceOrder_Totals(t *testing.T) {
	items := []RequestedItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}
	snapshots := []ProductSnapshot{
		{ID: 1, Name: "Keyboard", PriceMinor: 1000, Available: true},
		{ID: 2, Name: "Mouse", PriceMinor: 500, Available: true},
	}

	amount, count, err := PriceOrder(items, snapshots)
	if err != nil {
		t.Fatalf("price order: %v", err)
	}
	if amount != 2500 {
		t.Fatalf("expected amount 2500, got %d", amount)
	}
	if count != 3 {
		t.Fatalf("expected 3 items, got %d", count)
	}
}

func TestPriceOrder_UsesSnapshotPricesOnly(t *testing.T) {
	// Same request priced twice against different snapshots must follow the
	// snapshots, not any live product state.
	items := []RequestedItem{{ProductID: 7, Quantity: 3}}

	amount1, _, err := PriceOrder(items, []ProductSnapshot{{ID: 7, PriceMinor: 100}})
	if err != nil {
		t.Fatalf("price order: %v", err)
	}
	amount2, _, err := PriceOrder(items, []ProductSnapshot{{ID: 7, PriceMinor: 999}})
	if err != nil {
		t.Fatalf("price order: %v", err)
	}

	if amount1 != 300 || amount2 != 2997 {
		t.Fatalf("expected 300 and 2997, got %d and %d", amount1, amount2)
	}
}

func TestPriceOrder_MissingProduct(t *testing.T) {
	items := []RequestedItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 99, Quantity: 2},
		{ProductID: 99, Quantity: 1},
	}
	snapshots := []ProductSnapshot{{ID: 1, PriceMinor: 1000}}

	_, _, err := PriceOrder(items, snapshots)
	if err == nil {
		t.Fatal("expected error for missing product")
	}
	if !IsProductNotFound(err) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}

	var pnf *ProductNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatalf("expected ProductNotFoundError, got %T", err)
	}
	if len(pnf.ProductIDs) != 1 || pnf.ProductIDs[0] != 99 {
		t.Fatalf("expected missing ids [99], got %v", pnf.ProductIDs)
	}
}

func TestPriceOrder_Deterministic(t *testing.T) {
	items := []RequestedItem{{ProductID: 1, Quantity: 5}, {ProductID: 2, Quantity: 2}}
	snapshots := []ProductSnapshot{{ID: 1, PriceMinor: 199}, {ID: 2, PriceMinor: 2050}}

	firstAmount, firstCount, err := PriceOrder(items, snapshots)
	if err != nil {
		t.Fatalf("price order: %v", err)
	}
	for i := 0; i < 10; i++ {
		amount, count, err := PriceOrder(items, snapshots)
		if err != nil {
			t.Fatalf("price order: %v", err)
		}
		if amount != firstAmount || count != firstCount {
			t.Fatalf("expected stable totals, got %d/%d vs %d/%d", amount, count, firstAmount, firstCount)
		}
	}
}

func TestProductNotFoundError_Message(t *testing.T) {
	err := &ProductNotFoundError{ProductIDs: []int64{42, 7}}
	want := "products not found: 7, 42"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
