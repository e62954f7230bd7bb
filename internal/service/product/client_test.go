package product

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielcaamal/orders-ms/internal/domain"
)

func TestClient_Validate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/validate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}

		var req validateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.IDs) != 2 {
			t.Errorf("expected 2 ids, got %d", len(req.IDs))
		}

		_ = json.NewEncoder(w).Encode([]productPayload{
			{ID: 1, Name: "Keyboard", Price: 25.50, Available: true},
			{ID: 2, Name: "Mouse", Price: 10.00, Available: true},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	snapshots, err := client.Validate([]int64{1, 2})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].PriceMinor != 2550 {
		t.Errorf("expected price 2550 minor units, got %d", snapshots[0].PriceMinor)
	}
}

func TestClient_ValidatePriceConversion(t *testing.T) {
	// Most decimal prices are not exact in float64; converting to minor
	// units must round, not truncate (19.99*100 evaluates to 1998.999...).
	tests := []struct {
		price float64
		want  int64
	}{
		{price: 19.99, want: 1999},
		{price: 0.29, want: 29},
		{price: 1.15, want: 115},
		{price: 1099.99, want: 109999},
		{price: 10.00, want: 1000},
		{price: 0, want: 0},
	}

	for _, tt := range tests {
		if got := priceToMinor(tt.price); got != tt.want {
			t.Errorf("price %v converted to %d minor units, want %d", tt.price, got, tt.want)
		}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]productPayload{
			{ID: 1, Name: "Headset", Price: 19.99, Available: true},
		})
	}))
	defer server.Close()

	snapshots, err := NewClient(server.URL).Validate([]int64{1})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].PriceMinor != 1999 {
		t.Fatalf("expected snapshot price 1999 minor units, got %+v", snapshots)
	}
}

func TestClient_ValidateSkipsUnavailableProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]productPayload{
			{ID: 1, Name: "Keyboard", Price: 25.50, Available: true},
			{ID: 2, Name: "Mouse", Price: 10.00, Available: false},
		})
	}))
	defer server.Close()

	snapshots, err := NewClient(server.URL).Validate([]int64{1, 2})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	// The unavailable product is left out, so callers treat id 2 the same
	// as a product the service never returned.
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	if snapshots[0].ID != 1 {
		t.Errorf("expected snapshot for id 1, got %d", snapshots[0].ID)
	}
}

func TestClient_ValidateMissingProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(validateErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    "some products were not found",
			MissingIDs: []int64{42},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Validate([]int64{1, 42})

	var notFound *domain.ProductNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
	if len(notFound.ProductIDs) != 1 || notFound.ProductIDs[0] != 42 {
		t.Fatalf("expected missing id 42, got %v", notFound.ProductIDs)
	}
}

func TestClient_ValidateServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close() // refuse connections

	client := NewClient(server.URL)

	_, err := client.Validate([]int64{1})
	if !errors.Is(err, domain.ErrProductValidationUnavailable) {
		t.Fatalf("expected ErrProductValidationUnavailable, got %v", err)
	}
}

func TestClient_ValidateUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Validate([]int64{1})
	if !errors.Is(err, domain.ErrProductValidationUnavailable) {
		t.Fatalf("expected ErrProductValidationUnavailable, got %v", err)
	}
}

func TestMockService(t *testing.T) {
	mock := NewMockService(domain.ProductSnapshot{ID: 1, Name: "Keyboard", PriceMinor: 2550, Available: true})

	snapshots, err := mock.Validate([]int64{1})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	if mock.ValidateCalls != 1 {
		t.Errorf("expected 1 call, got %d", mock.ValidateCalls)
	}
	if len(mock.LastIDs) != 1 || mock.LastIDs[0] != 1 {
		t.Errorf("expected last ids [1], got %v", mock.LastIDs)
	}

	mock.ValidateErr = errors.New("down")
	if _, err := mock.Validate([]int64{1}); err == nil {
		t.Fatal("expected configured error")
	}
}
