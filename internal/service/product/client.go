package product

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/danielcaamal/orders-ms/internal/domain"
)

const defaultRequestTimeout = 5 * time.Second

// Client talks to the products service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NewClient creates a products client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		logger: log.WithField("component", "product-client"),
	}
}

type validateRequest struct {
	IDs []int64 `json:"ids"`
}

type productPayload struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

type validateErrorResponse struct {
	StatusCode int     `json:"statusCode"`
	Message    string  `json:"message"`
	MissingIDs []int64 `json:"missingIds,omitempty"`
}

// Validate asks the products service to confirm every id exists and
// returns price snapshots for the valid ones.
func (c *Client) Validate(productIDs []int64) ([]domain.ProductSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	body, err := json.Marshal(validateRequest{IDs: productIDs})
	if err != nil {
		return nil, fmt.Errorf("marshal validate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("products service unreachable")
		return nil, fmt.Errorf("%w: %v", domain.ErrProductValidationUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload []productPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode validate response: %w", err)
		}
		snapshots := make([]domain.ProductSnapshot, 0, len(payload))
		for _, p := range payload {
			// An unavailable product is not purchasable: leaving it out of
			// the result makes the caller treat it as not found.
			if !p.Available {
				continue
			}
			snapshots = append(snapshots, domain.ProductSnapshot{
				ID:         p.ID,
				Name:       p.Name,
				PriceMinor: priceToMinor(p.Price),
				Available:  p.Available,
			})
		}
		return snapshots, nil

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		var errResp validateErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || len(errResp.MissingIDs) == 0 {
			return nil, &domain.ProductNotFoundError{ProductIDs: productIDs}
		}
		return nil, &domain.ProductNotFoundError{ProductIDs: errResp.MissingIDs}

	default:
		c.logger.WithField("status", resp.StatusCode).Warn("unexpected products service response")
		return nil, fmt.Errorf("%w: status %d", domain.ErrProductValidationUnavailable, resp.StatusCode)
	}
}

// priceToMinor converts the remote's decimal price to minor currency
// units. Rounding matters: most decimal prices have no exact float64
// representation (19.99*100 is 1998.999...), so truncation would lose a
// cent.
func priceToMinor(price float64) int64 {
	return int64(math.Round(price * 100))
}

var _ domain.ProductValidator = (*Client)(nil)
