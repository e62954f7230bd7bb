package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielcaamal/orders-ms/internal/domain"
)

func TestClient_CreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.OrderID != "order-1" {
			t.Errorf("unexpected order id %s", req.OrderID)
		}
		if len(req.Items) != 1 || req.Items[0].Price != 25.50 {
			t.Errorf("unexpected items %v", req.Items)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createSessionResponse{
			ID:  "cs_1",
			URL: "https://pay.example/session/cs_1",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	session, err := client.CreateSession("order-1", "usd", []domain.SessionItem{
		{Name: "Keyboard", PriceMinor: 2550, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.ID != "cs_1" {
		t.Errorf("unexpected session id %s", session.ID)
	}
	if session.URL == "" {
		t.Error("expected a checkout url")
	}
}

func TestClient_CreateSessionRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.CreateSession("order-1", "usd", nil)
	if !errors.Is(err, domain.ErrPaymentSessionFailed) {
		t.Fatalf("expected ErrPaymentSessionFailed, got %v", err)
	}
}

func TestClient_CreateSessionUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL)

	_, err := client.CreateSession("order-1", "usd", nil)
	if !errors.Is(err, domain.ErrPaymentSessionFailed) {
		t.Fatalf("expected ErrPaymentSessionFailed, got %v", err)
	}
}

func TestMockService(t *testing.T) {
	mock := NewMockService()

	session, err := mock.CreateSession("order-1", "usd", []domain.SessionItem{
		{Name: "Keyboard", PriceMinor: 2550, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.ID == "" {
		t.Error("expected default session id")
	}
	if mock.CreateSessionCalls != 1 {
		t.Errorf("expected 1 call, got %d", mock.CreateSessionCalls)
	}
	if mock.LastOrderID != "order-1" {
		t.Errorf("expected last order id order-1, got %s", mock.LastOrderID)
	}

	mock.SessionErr = errors.New("stripe down")
	if _, err := mock.CreateSession("order-2", "usd", nil); err == nil {
		t.Fatal("expected configured error")
	}
}
