package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/danielcaamal/orders-ms/internal/domain"
	"github.com/danielcaamal/orders-ms/internal/service/payment"
	"github.com/danielcaamal/orders-ms/internal/service/product"
	"github.com/danielcaamal/orders-ms/internal/storage/memory"
	"github.com/danielcaamal/orders-ms/internal/storage/postgres"
)

// Dependencies holds the wired collaborators of the application.
type Dependencies struct {
	Orders   domain.OrderRepository
	Outbox   domain.OutboxRepository
	Products domain.ProductValidator
	Payments domain.PaymentInitiator
	// Store is non-nil only when Postgres is configured.
	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies builds the storage and external-service collaborators
// from the config. An empty DSN falls back to the in-memory store and
// empty service URLs fall back to mocks, which keeps local development
// runnable without infrastructure.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.Store = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		logger.Info("using postgres storage")
	} else {
		deps.Orders = memory.NewOrderRepository()
		deps.Outbox = memory.NewOutboxRepository()
		logger.Info("using in-memory storage")
	}

	if cfg.ProductServiceURL != "" {
		deps.Products = product.NewClient(cfg.ProductServiceURL)
	} else {
		logger.Warn("ORDERS_PRODUCT_SERVICE_URL is empty, using product mock")
		deps.Products = product.NewMockService()
	}

	if cfg.PaymentServiceURL != "" {
		deps.Payments = payment.NewClient(cfg.PaymentServiceURL)
	} else {
		logger.Warn("ORDERS_PAYMENT_SERVICE_URL is empty, using payment mock")
		deps.Payments = payment.NewMockService()
	}

	return deps, nil
}

// Close releases the storage resources.
func (d *Dependencies) Close() error {
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
