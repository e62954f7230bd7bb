package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/danielcaamal/orders-ms/internal/domain"
)

const defaultRequestTimeout = 10 * time.Second

// Client talks to the payments service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NewClient creates a payments client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		logger: log.WithField("component", "payment-client"),
	}
}

type sessionItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int32   `json:"quantity"`
}

type createSessionRequest struct {
	OrderID  string        `json:"orderId"`
	Currency string        `json:"currency"`
	Items    []sessionItem `json:"items"`
}

type createSessionResponse struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	CancelURL  string `json:"cancelUrl"`
	SuccessURL string `json:"successUrl"`
}

// CreateSession asks the payments service for a checkout session.
func (c *Client) CreateSession(orderID, currency string, items []domain.SessionItem) (domain.PaymentSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	payload := createSessionRequest{
		OrderID:  orderID,
		Currency: currency,
		Items:    make([]sessionItem, 0, len(items)),
	}
	for _, item := range items {
		payload.Items = append(payload.Items, sessionItem{
			Name:     item.Name,
			Price:    float64(item.PriceMinor) / 100,
			Quantity: item.Quantity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments/sessions", bytes.NewReader(body))
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("order_id", orderID).Warn("payments service unreachable")
		return domain.PaymentSession{}, fmt.Errorf("%w: %v", domain.ErrPaymentSessionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.WithFields(log.Fields{
			"order_id": orderID,
			"status":   resp.StatusCode,
		}).Warn("payment session request rejected")
		return domain.PaymentSession{}, fmt.Errorf("%w: status %d", domain.ErrPaymentSessionFailed, resp.StatusCode)
	}

	var session createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return domain.PaymentSession{}, fmt.Errorf("%w: decode response: %v", domain.ErrPaymentSessionFailed, err)
	}

	return domain.PaymentSession{
		ID:         session.ID,
		URL:        session.URL,
		CancelURL:  session.CancelURL,
		SuccessURL: session.SuccessURL,
	}, nil
}

var _ domain.PaymentInitiator = (*Client)(nil)
