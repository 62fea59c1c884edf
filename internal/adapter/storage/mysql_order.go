package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

const orderColumns = `id, user_id, total, status, created_at, updated_at`

func (m *MySQLAdapter) CreateOrderFromCart(ctx context.Context, cart domain.Cart, order domain.Order, event domain.OutboxEvent) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE carts
			SET version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			order.CreatedAt, cart.ID, cart.Version,
		)
		if err != nil {
			return fmt.Errorf("update cart version: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrCartModified
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, order.UserID, order.Total, order.Status, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range order.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, price)
				VALUES (?, ?, ?, ?, ?)`,
				item.ID, order.ID, item.ProductID, item.Quantity, item.Price,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cart.ID); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}

		return insertOutboxEvent(ctx, tx, event)
	})
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID,
	).Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if err := m.loadOrderDetails(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MySQLAdapter) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return m.listOrders(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (m *MySQLAdapter) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return m.listOrders(ctx, `
		SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, event domain.OutboxEvent) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			to, time.Now().UTC(), orderID, from,
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, orderID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrOrderNotFound
			}
			if err != nil {
				return fmt.Errorf("query order: %w", err)
			}
			return domain.ErrStatusChanged
		}

		return insertOutboxEvent(ctx, tx, event)
	})
}

func (m *MySQLAdapter) ConfirmPayment(ctx context.Context, payment domain.Payment, event domain.OutboxEvent) (domain.ConfirmResult, error) {
	var result domain.ConfirmResult

	err := m.withTx(ctx, func(tx *sql.Tx) error {
		// The row lock serializes concurrent deliveries for the same order.
		err := tx.QueryRowContext(ctx, `
			SELECT status FROM orders WHERE id = ? FOR UPDATE`, payment.OrderID,
		).Scan(&result.PreviousStatus)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		var existing int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM payments WHERE external_session_id = ?`, payment.ExternalSessionID,
		).Scan(&existing)
		if err != nil {
			return fmt.Errorf("query payment: %w", err)
		}
		if existing > 0 {
			return nil
		}

		if result.PreviousStatus == domain.OrderStatusPending {
			res, err := tx.ExecContext(ctx, `
				UPDATE orders SET status = ?, updated_at = ?
				WHERE id = ? AND status = ?`,
				domain.OrderStatusProcessing, payment.CreatedAt, payment.OrderID, domain.OrderStatusPending,
			)
			if err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
			rows, _ := res.RowsAffected()
			result.StatusChanged = rows == 1
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (id, order_id, external_session_id, amount, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			payment.ID, payment.OrderID, payment.ExternalSessionID, payment.Amount, payment.Status, payment.CreatedAt,
		)
		if err != nil {
			if isDuplicateEntry(err) {
				result = domain.ConfirmResult{PreviousStatus: result.PreviousStatus}
				return errDuplicatePayment
			}
			return fmt.Errorf("insert payment: %w", err)
		}
		result.PaymentCreated = true

		return insertOutboxEvent(ctx, tx, event)
	})
	if errors.Is(err, errDuplicatePayment) {
		return result, nil
	}
	if err != nil {
		return domain.ConfirmResult{}, err
	}

	return result, nil
}

// errDuplicatePayment rolls back a confirmation that lost a race to an
// identical delivery.
var errDuplicatePayment = errors.New("duplicate payment")

func (m *MySQLAdapter) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for i := range orders {
		if err := m.loadOrderDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (m *MySQLAdapter) loadOrderDetails(ctx context.Context, o *domain.Order) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT oi.id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.id`, o.ID,
	)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	o.Items = []domain.OrderItem{}
	for rows.Next() {
		item := domain.OrderItem{OrderID: o.ID}
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("scan order item row: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	payRows, err := m.db.QueryContext(ctx, `
		SELECT id, external_session_id, amount, status, created_at
		FROM payments WHERE order_id = ? ORDER BY created_at`, o.ID,
	)
	if err != nil {
		return fmt.Errorf("query payments: %w", err)
	}
	defer payRows.Close()

	o.Payments = []domain.Payment{}
	for payRows.Next() {
		p := domain.Payment{OrderID: o.ID}
		if err := payRows.Scan(&p.ID, &p.ExternalSessionID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return fmt.Errorf("scan payment row: %w", err)
		}
		o.Payments = append(o.Payments, p)
	}
	return payRows.Err()
}
