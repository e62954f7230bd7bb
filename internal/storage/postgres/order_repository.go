package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/danielcaamal/orders-ms/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	orderColumns = `id, total_amount, total_items, status, paid, paid_at, stripe_charge_id, created_at, updated_at`
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates the PostgreSQL implementation of OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, total_amount, total_items, status, paid, paid_at, stripe_charge_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		order.ID, order.TotalAmountMinor, order.TotalItems, string(order.Status),
		order.Paid, order.PaidAt, nullString(order.StripeChargeID),
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, domain.ErrOrderAlreadyExists
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, quantity, price, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			item.ID, order.ID, item.ProductID, item.Quantity, item.PriceMinor,
			item.CreatedAt, item.UpdatedAt,
		); err != nil {
			return domain.Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) List(filter domain.ListFilter) (domain.OrderPage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	page, limit := normalizePage(filter.Page, filter.Limit)

	var (
		total int
		rows  *sql.Rows
		err   error
	)

	if filter.Status != nil {
		status := string(*filter.Status)
		if err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM orders WHERE status = $1`, status,
		).Scan(&total); err != nil {
			return domain.OrderPage{}, fmt.Errorf("count orders: %w", err)
		}
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			WHERE status = $1
			ORDER BY created_at, id
			LIMIT $2 OFFSET $3
		`, status, limit, (page-1)*limit)
	} else {
		if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
			return domain.OrderPage{}, fmt.Errorf("count orders: %w", err)
		}
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			ORDER BY created_at, id
			LIMIT $1 OFFSET $2
		`, limit, (page-1)*limit)
	}
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return domain.OrderPage{}, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return domain.OrderPage{}, fmt.Errorf("iterate order rows: %w", err)
	}

	return domain.OrderPage{
		Orders:   orders,
		Total:    total,
		Page:     page,
		Limit:    limit,
		LastPage: lastPage(total, limit),
	}, nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getOrder(ctx, r.db, id)
}

func (r *orderRepository) GetWithItems(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.getOrder(ctx, r.db, id)
	if err != nil {
		return domain.Order{}, err
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) UpdateStatus(id string, status domain.OrderStatus) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Resolve under a row lock so concurrent transitions on the same order
	// serialize on the storage engine.
	order, err := r.getOrderForUpdate(ctx, tx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if order.Status == status {
		if err = tx.Commit(); err != nil {
			return domain.Order{}, fmt.Errorf("commit status no-op: %w", err)
		}
		return order, nil
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
	`, id, string(status), now); err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit status update: %w", err)
	}

	order.Status = status
	order.UpdatedAt = now
	return order, nil
}

func (r *orderRepository) RecordPaymentSuccess(orderID, stripeChargeID, receiptURL string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err := r.getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	// Duplicate notifications are harmless: the first write wins.
	if order.Paid {
		if err = tx.Commit(); err != nil {
			return domain.Order{}, fmt.Errorf("commit paid no-op: %w", err)
		}
		return order, nil
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    paid = TRUE,
		    paid_at = $3,
		    stripe_charge_id = $4,
		    updated_at = $3
		WHERE id = $1
	`, orderID, string(domain.OrderStatusPaid), now, stripeChargeID); err != nil {
		return domain.Order{}, fmt.Errorf("mark order paid: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO order_receipts (id, order_id, receipt_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, uuid.NewString(), orderID, receiptURL, now, now); err != nil {
		return domain.Order{}, fmt.Errorf("insert order receipt: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit payment success: %w", err)
	}

	order.Status = domain.OrderStatusPaid
	order.Paid = true
	order.PaidAt = &now
	order.StripeChargeID = stripeChargeID
	order.UpdatedAt = now
	return order, nil
}

func (r *orderRepository) ListStalePending(cutoff time.Time, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = $1
		  AND paid = FALSE
		  AND created_at < $2
		ORDER BY created_at, id
		LIMIT $3
	`, string(domain.OrderStatusPending), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale pending rows: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order    domain.Order
		status   string
		paidAt   sql.NullTime
		chargeID sql.NullString
	)

	if err := row.Scan(
		&order.ID, &order.TotalAmountMinor, &order.TotalItems, &status,
		&order.Paid, &paidAt, &chargeID, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("scan order row: %w", err)
	}

	order.Status = domain.OrderStatus(status)
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		order.PaidAt = &t
	}
	if chargeID.Valid {
		order.StripeChargeID = chargeID.String
	}

	return order, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *orderRepository) getOrder(ctx context.Context, q queryRower, id string) (domain.Order, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)
	return scanOrder(row)
}

func (r *orderRepository) getOrderForUpdate(ctx context.Context, tx *sql.Tx, id string) (domain.Order, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanOrder(row)
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price, created_at, updated_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.PriceMinor, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return page, limit
}

func lastPage(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
