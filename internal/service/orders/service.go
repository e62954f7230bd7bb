package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/danielcaamal/orders-ms/internal/domain"
	"github.com/danielcaamal/orders-ms/internal/messaging/kafka"
	"github.com/danielcaamal/orders-ms/internal/metrics"
)

// DetailedOrder pairs an order with the product names used to present its
// items. Names come from the products service at read time and are never
// persisted.
type DetailedOrder struct {
	Order        domain.Order
	ProductNames map[int64]string
}

// CreateResult is the response to a successful order creation.
type CreateResult struct {
	Order          DetailedOrder
	PaymentSession domain.PaymentSession
}

// Service implements the order use cases.
type Service struct {
	orders   domain.OrderRepository
	outbox   domain.OutboxRepository
	products domain.ProductValidator
	payments domain.PaymentInitiator
	policy   domain.StatusTransitionPolicy
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
	currency string
}

// NewService creates a working service instance.
func NewService(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	products domain.ProductValidator,
	payments domain.PaymentInitiator,
	policy domain.StatusTransitionPolicy,
	currency string,
	logger *log.Entry,
) *Service {
	svc := newService(orders, outbox, products, payments, policy, currency, logger)
	svc.metrics = metrics.NewOrderMetrics()
	return svc
}

// NewServiceWithoutMetrics creates a service without metrics, for tests.
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	products domain.ProductValidator,
	payments domain.PaymentInitiator,
	policy domain.StatusTransitionPolicy,
	currency string,
	logger *log.Entry,
) *Service {
	return newService(orders, outbox, products, payments, policy, currency, logger)
}

func newService(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	products domain.ProductValidator,
	payments domain.PaymentInitiator,
	policy domain.StatusTransitionPolicy,
	currency string,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders-service")
	}
	if policy == nil {
		policy = domain.PermissivePolicy{}
	}
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		orders:   orders,
		outbox:   outbox,
		products: products,
		payments: payments,
		policy:   policy,
		logger:   logger,
		currency: currency,
	}
}

// CreateOrder validates the requested products, prices the order from the
// returned snapshots, persists it atomically and requests a payment
// session. The order survives a session failure and stays PENDING.
func (s *Service) CreateOrder(items []domain.RequestedItem) (CreateResult, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	if len(items) == 0 {
		s.recordCreateFailure("validation")
		return CreateResult{}, domain.ErrItemsRequired
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			s.recordCreateFailure("validation")
			return CreateResult{}, domain.ErrItemQuantityInvalid
		}
	}

	snapshots, err := s.products.Validate(distinctProductIDs(items))
	if err != nil {
		if domain.IsProductNotFound(err) {
			s.recordCreateFailure("product_not_found")
		} else {
			s.recordCreateFailure("products_unavailable")
		}
		s.logger.WithError(err).Warn("product validation failed")
		return CreateResult{}, err
	}

	amountMinor, totalItems, err := domain.PriceOrder(items, snapshots)
	if err != nil {
		s.recordCreateFailure("product_not_found")
		return CreateResult{}, err
	}

	order := s.buildOrder(items, snapshots, amountMinor, totalItems)
	if violations := order.ValidateInvariants(); len(violations) > 0 {
		s.recordCreateFailure("invariants")
		return CreateResult{}, fmt.Errorf("order invariants violated: %v", violations)
	}

	created, err := s.orders.Create(order)
	if err != nil {
		s.recordCreateFailure("storage")
		s.logger.WithError(err).Error("failed to persist order")
		return CreateResult{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}

	names := snapshotNames(snapshots)
	s.emitEvent(created.ID, created.Status, kafka.EventTypeOrderCreated, map[string]interface{}{
		"total_amount": created.TotalAmountMinor,
		"total_items":  created.TotalItems,
	})

	session, err := s.payments.CreateSession(created.ID, s.currency, sessionItems(created.Items, names))
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordPaymentSessionFailed()
		}
		s.logger.WithError(err).WithField("order_id", created.ID).Warn("payment session creation failed, order kept pending")
		if !isPaymentSessionFailure(err) {
			err = fmt.Errorf("%w: %v", domain.ErrPaymentSessionFailed, err)
		}
		return CreateResult{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordPaymentSessionCreated()
	}

	s.logger.WithFields(log.Fields{
		"order_id":     created.ID,
		"total_amount": created.TotalAmountMinor,
		"total_items":  created.TotalItems,
	}).Info("order created")

	return CreateResult{
		Order:          DetailedOrder{Order: created, ProductNames: names},
		PaymentSession: session,
	}, nil
}

// FindAll returns one page of orders matching the filter.
func (s *Service) FindAll(filter domain.ListFilter) (domain.OrderPage, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return domain.OrderPage{}, domain.ErrStatusInvalid
	}
	return s.orders.List(filter)
}

// FindOne returns the order with its items, or ErrOrderNotFound.
func (s *Service) FindOne(id string) (domain.Order, error) {
	return s.orders.GetWithItems(id)
}

// FindOneDetailed returns the order with its items plus product names for
// presentation. Name lookup failures degrade to an un-enriched result.
func (s *Service) FindOneDetailed(id string) (DetailedOrder, error) {
	order, err := s.orders.GetWithItems(id)
	if err != nil {
		return DetailedOrder{}, err
	}

	ids := make([]int64, 0, len(order.Items))
	seen := make(map[int64]bool, len(order.Items))
	for _, item := range order.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	snapshots, err := s.products.Validate(ids)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", id).Warn("product name enrichment failed")
		return DetailedOrder{Order: order, ProductNames: map[int64]string{}}, nil
	}

	return DetailedOrder{Order: order, ProductNames: snapshotNames(snapshots)}, nil
}

// ChangeStatus applies a status transition under the configured policy.
// A same-status request is an idempotent no-op.
func (s *Service) ChangeStatus(id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.ErrStatusInvalid
	}

	current, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}
	if current.Status == status {
		return current, nil
	}

	if err := s.policy.CanTransition(current.Status, status); err != nil {
		s.logger.WithFields(log.Fields{
			"order_id": id,
			"from":     string(current.Status),
			"to":       string(status),
		}).Warn("status transition rejected")
		return domain.Order{}, err
	}

	updated, err := s.orders.UpdateStatus(id, status)
	if err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusChange(string(status))
		if current.Status == domain.OrderStatusPending {
			s.metrics.RecordOrderSettled()
		}
	}
	s.emitEvent(id, status, kafka.EventTypeOrderStatusChanged, map[string]interface{}{
		"from": string(current.Status),
	})

	return updated, nil
}

// RecordPaymentSuccess applies a payment confirmation. Duplicate
// notifications leave the first write untouched.
func (s *Service) RecordPaymentSuccess(notice domain.PaymentSucceeded) (domain.Order, error) {
	before, err := s.orders.Get(notice.OrderID)
	if err != nil {
		return domain.Order{}, err
	}

	updated, err := s.orders.RecordPaymentSuccess(notice.OrderID, notice.StripeChargeID, notice.ReceiptURL)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", notice.OrderID).Error("failed to record payment success")
		return domain.Order{}, err
	}

	if before.Status != domain.OrderStatusPaid {
		if s.metrics != nil {
			s.metrics.RecordPaymentConfirmation()
			if before.Status == domain.OrderStatusPending {
				s.metrics.RecordOrderSettled()
			}
		}
		s.emitEvent(notice.OrderID, domain.OrderStatusPaid, kafka.EventTypeOrderPaid, map[string]interface{}{
			"stripe_charge_id": notice.StripeChargeID,
		})
		s.logger.WithFields(log.Fields{
			"order_id":         notice.OrderID,
			"stripe_charge_id": notice.StripeChargeID,
		}).Info("payment recorded")
	}

	return updated, nil
}

func (s *Service) buildOrder(items []domain.RequestedItem, snapshots []domain.ProductSnapshot, amountMinor int64, totalItems int32) domain.Order {
	index := domain.SnapshotIndex(snapshots)
	now := time.Now().UTC()
	orderID := uuid.NewString()

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, domain.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceMinor: index[item.ProductID].PriceMinor,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return domain.Order{
		ID:               orderID,
		TotalAmountMinor: amountMinor,
		TotalItems:       totalItems,
		Status:           domain.OrderStatusPending,
		Items:            orderItems,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *Service) emitEvent(orderID string, status domain.OrderStatus, eventType kafka.EventType, metadata map[string]interface{}) {
	if s.outbox == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, orderID, string(status), metadata)
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    string(eventType),
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   orderID,
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    string(eventType),
		}).Error("enqueue event failed")
	} else if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func (s *Service) recordCreateFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderCreateFailed(reason)
	}
}

func distinctProductIDs(items []domain.RequestedItem) []int64 {
	seen := make(map[int64]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

func snapshotNames(snapshots []domain.ProductSnapshot) map[int64]string {
	names := make(map[int64]string, len(snapshots))
	for _, s := range snapshots {
		names[s.ID] = s.Name
	}
	return names
}

func sessionItems(items []domain.OrderItem, names map[int64]string) []domain.SessionItem {
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

func isPaymentSessionFailure(err error) bool {
	return errors.Is(err, domain.ErrPaymentSessionFailed)
}
