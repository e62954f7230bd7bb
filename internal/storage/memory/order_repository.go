package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielcaamal/orders-ms/internal/domain"
)

// orderRepositoryInMemory is a map-backed OrderRepository for local
// development and tests.
type orderRepositoryInMemory struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	receipts map[string]domain.Receipt
}

// NewOrderRepository returns an in-memory order repository.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		orders:   make(map[string]domain.Order),
		receipts: make(map[string]domain.Receipt),
	}
}

func (r *orderRepositoryInMemory) Create(order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.Order{}, domain.ErrOrderAlreadyExists
	}
	r.orders[order.ID] = cloneOrder(order)
	return order, nil
}

func (r *orderRepositoryInMemory) List(filter domain.ListFilter) (domain.OrderPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	matching := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		matching = append(matching, order)
	}
	sortByCreation(matching)

	total := len(matching)
	last := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	pageOrders := make([]domain.Order, 0, end-start)
	for _, order := range matching[start:end] {
		order.Items = nil
		pageOrders = append(pageOrders, order)
	}

	return domain.OrderPage{
		Orders:   pageOrders,
		Total:    total,
		Page:     page,
		Limit:    limit,
		LastPage: last,
	}, nil
}

func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	order.Items = nil
	return order, nil
}

func (r *orderRepositoryInMemory) GetWithItems(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *orderRepositoryInMemory) UpdateStatus(id string, status domain.OrderStatus) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if order.Status == status {
		return cloneOrder(order), nil
	}

	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order
	return cloneOrder(order), nil
}

func (r *orderRepositoryInMemory) RecordPaymentSuccess(orderID, stripeChargeID, receiptURL string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if order.Paid {
		return cloneOrder(order), nil
	}

	now := time.Now().UTC()
	order.Status = domain.OrderStatusPaid
	order.Paid = true
	order.PaidAt = &now
	order.StripeChargeID = stripeChargeID
	order.UpdatedAt = now
	r.orders[orderID] = order

	r.receipts[orderID] = domain.Receipt{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		ReceiptURL: receiptURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return cloneOrder(order), nil
}

func (r *orderRepositoryInMemory) ListStalePending(cutoff time.Time, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	stale := make([]domain.Order, 0)
	for _, order := range r.orders {
		if order.Status != domain.OrderStatusPending || order.Paid {
			continue
		}
		if !order.CreatedAt.Before(cutoff) {
			continue
		}
		stale = append(stale, cloneOrder(order))
	}
	sortByCreation(stale)

	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

// Receipt returns the receipt stored for an order; test helper.
func (r *orderRepositoryInMemory) Receipt(orderID string) (domain.Receipt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	receipt, ok := r.receipts[orderID]
	return receipt, ok
}

func sortByCreation(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}

// cloneOrder copies the aggregate so callers cannot mutate stored state.
func cloneOrder(order domain.Order) domain.Order {
	clone := order
	if order.Items != nil {
		clone.Items = append([]domain.OrderItem(nil), order.Items...)
	}
	if order.PaidAt != nil {
		paidAt := *order.PaidAt
		clone.PaidAt = &paidAt
	}
	return clone
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
