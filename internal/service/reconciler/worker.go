package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/danielcaamal/orders-ms/internal/domain"
	"github.com/danielcaamal/orders-ms/internal/messaging/kafka"
)

const (
	defaultPollInterval = 1 * time.Minute
	defaultStaleAfter   = 15 * time.Minute
	defaultExpireAfter  = 24 * time.Hour
	defaultBatchSize    = 50
)

var reconcilerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "orders_reconciler_outcomes_total",
	Help: "Total number of reconciler decisions grouped by outcome.",
}, []string{"outcome"})

// WorkerOptions configures the pending-order reconciler.
type WorkerOptions struct {
	Logger       *log.Entry
	Products     domain.ProductValidator
	PollInterval time.Duration
	StaleAfter   time.Duration
	ExpireAfter  time.Duration
	BatchSize    int
	Currency     string
}

// Option customizes a Worker.
type Option func(*WorkerOptions)

// WithLogger sets the worker logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithProducts sets the validator used to name session items.
func WithProducts(products domain.ProductValidator) Option {
	return func(opts *WorkerOptions) {
		opts.Products = products
	}
}

// WithPollInterval sets how often pending orders are scanned.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

// WithStaleAfter sets the age after which a PENDING order gets a fresh
// payment session.
func WithStaleAfter(age time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.StaleAfter = age
	}
}

// WithExpireAfter sets the age after which a PENDING order is cancelled.
func WithExpireAfter(age time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.ExpireAfter = age
	}
}

// WithBatchSize sets how many stale orders one scan handles.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// WithCurrency sets the currency for recreated sessions.
func WithCurrency(currency string) Option {
	return func(opts *WorkerOptions) {
		opts.Currency = currency
	}
}

// Worker rescues PENDING orders whose payment session went nowhere:
// stale orders get a fresh session, orders past the expiry age are
// cancelled.
type Worker struct {
	orders       domain.OrderRepository
	payments     domain.PaymentInitiator
	outbox       domain.OutboxRepository
	products     domain.ProductValidator
	logger       *log.Entry
	pollInterval time.Duration
	staleAfter   time.Duration
	expireAfter  time.Duration
	batchSize    int
	currency     string
}

// NewWorker creates a reconciler worker.
func NewWorker(orders domain.OrderRepository, payments domain.PaymentInitiator, outbox domain.OutboxRepository, options ...Option) *Worker {
	opts := WorkerOptions{
		PollInterval: defaultPollInterval,
		StaleAfter:   defaultStaleAfter,
		ExpireAfter:  defaultExpireAfter,
		BatchSize:    defaultBatchSize,
		Currency:     "usd",
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reconciler")
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultStaleAfter
	}
	if opts.ExpireAfter <= opts.StaleAfter {
		opts.ExpireAfter = defaultExpireAfter
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	return &Worker{
		orders:       orders,
		payments:     payments,
		outbox:       outbox,
		products:     opts.Products,
		logger:       logger,
		pollInterval: opts.PollInterval,
		staleAfter:   opts.StaleAfter,
		expireAfter:  opts.ExpireAfter,
		batchSize:    opts.BatchSize,
		currency:     opts.Currency,
	}
}

// Run scans for stale orders until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w.orders == nil || w.payments == nil {
		w.logger.Warn("reconciler is disabled: orders repo or payments client is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce runs one reconciliation scan.
func (w *Worker) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	now := time.Now().UTC()
	stale, err := w.orders.ListStalePending(now.Add(-w.staleAfter), w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to list stale pending orders")
		return
	}

	for _, order := range stale {
		if ctx.Err() != nil {
			return
		}

		if now.Sub(order.CreatedAt) >= w.expireAfter {
			w.expire(order)
			continue
		}
		w.recreateSession(order)
	}
}

func (w *Worker) expire(order domain.Order) {
	if _, err := w.orders.UpdateStatus(order.ID, domain.OrderStatusCancelled); err != nil {
		w.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to cancel expired order")
		reconcilerOutcomes.WithLabelValues("expire_failed").Inc()
		return
	}

	w.emitEvent(order.ID, domain.OrderStatusCancelled, kafka.EventTypeOrderExpired, map[string]interface{}{
		"created_at": order.CreatedAt.Format(time.RFC3339Nano),
	})
	reconcilerOutcomes.WithLabelValues("expired").Inc()
	w.logger.WithField("order_id", order.ID).Info("expired pending order cancelled")
}

func (w *Worker) recreateSession(order domain.Order) {
	full, err := w.orders.GetWithItems(order.ID)
	if err != nil {
		w.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to load order for session retry")
		reconcilerOutcomes.WithLabelValues("retry_failed").Inc()
		return
	}

	session, err := w.payments.CreateSession(full.ID, w.currency, w.sessionItems(full.Items))
	if err != nil {
		w.logger.WithError(err).WithField("order_id", full.ID).Warn("payment session retry failed")
		reconcilerOutcomes.WithLabelValues("retry_failed").Inc()
		return
	}

	w.emitEvent(full.ID, domain.OrderStatusPending, kafka.EventTypeOrderSessionRecreated, map[string]interface{}{
		"session_id":  session.ID,
		"session_url": session.URL,
	})
	reconcilerOutcomes.WithLabelValues("session_recreated").Inc()
	w.logger.WithFields(log.Fields{
		"order_id":   full.ID,
		"session_id": session.ID,
	}).Info("payment session recreated for stale order")
}

func (w *Worker) sessionItems(items []domain.OrderItem) []domain.SessionItem {
	names := w.lookupNames(items)

	result := make([]domain.SessionItem, 0, len(items))
	for _, item := range items {
		name := names[item.ProductID]
		if name == "" {
			name = fmt.Sprintf("product %d", item.ProductID)
		}
		result = append(result, domain.SessionItem{
			Name:       name,
			PriceMinor: item.PriceMinor,
			Quantity:   item.Quantity,
		})
	}
	return result
}

func (w *Worker) lookupNames(items []domain.OrderItem) map[int64]string {
	if w.products == nil {
		return nil
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	snapshots, err := w.products.Validate(ids)
	if err != nil {
		// Names are presentation only, the snapshot prices stay authoritative.
		return nil
	}

	names := make(map[int64]string, len(snapshots))
	for _, s := range snapshots {
		names[s.ID] = s.Name
	}
	return names
}

func (w *Worker) emitEvent(orderID string, status domain.OrderStatus, eventType kafka.EventType, metadata map[string]interface{}) {
	if w.outbox == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, orderID, string(status), metadata)
	data, err := json.Marshal(event)
	if err != nil {
		w.logger.WithError(err).WithField("order_id", orderID).Error("marshal reconciler event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   orderID,
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := w.outbox.Enqueue(msg); err != nil {
		w.logger.WithError(err).WithField("order_id", orderID).Error("enqueue reconciler event failed")
	}
}
