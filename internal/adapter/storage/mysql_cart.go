package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (m *MySQLAdapter) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := ensureCart(ctx, m.db, userID); err != nil {
		return nil, err
	}

	var cart domain.Cart
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, version, created_at, updated_at
		FROM carts WHERE user_id = ?`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	// Items are read after the version: a mutation in between leaves a stale
	// version, which the conversion CAS rejects.
	rows, err := m.db.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, ci.quantity,
		       p.id, p.name, p.description, p.price, p.stock, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.created_at`, cart.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		item := domain.CartItem{CartID: cart.ID}
		p := &item.Product
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &cart, nil
}

func (m *MySQLAdapter) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := m.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		var exists int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, productID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("query product: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
			uuid.NewString(), cartID, productID, quantity, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("upsert cart item: %w", err)
		}

		return bumpCartVersion(ctx, tx, cartID)
	})
}

func (m *MySQLAdapter) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := m.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		var current int
		err = tx.QueryRowContext(ctx, `
			SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ? FOR UPDATE`,
			cartID, productID,
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCartItemNotFound
		}
		if err != nil {
			return fmt.Errorf("query cart item: %w", err)
		}

		if quantity <= 0 {
			_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE cart_items SET quantity = ? WHERE cart_id = ? AND product_id = ?`, quantity, cartID, productID)
		}
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}

		return bumpCartVersion(ctx, tx, cartID)
	})
}

func (m *MySQLAdapter) RemoveItem(ctx context.Context, userID, productID string) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := m.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID); err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}

		return bumpCartVersion(ctx, tx, cartID)
	})
}

func (m *MySQLAdapter) ClearCart(ctx context.Context, userID string) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := m.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}

		return bumpCartVersion(ctx, tx, cartID)
	})
}

func ensureCart(ctx context.Context, q queryer, userID string) error {
	now := time.Now().UTC()
	_, err := q.ExecContext(ctx, `
		INSERT IGNORE INTO carts (id, user_id, version, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)`,
		uuid.NewString(), userID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

// lockCart creates the cart if needed and takes its row lock for the rest of tx.
func (m *MySQLAdapter) lockCart(ctx context.Context, tx *sql.Tx, userID string) (string, error) {
	if err := ensureCart(ctx, tx, userID); err != nil {
		return "", err
	}

	var cartID string
	err := tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = ? FOR UPDATE`, userID).Scan(&cartID)
	if err != nil {
		return "", fmt.Errorf("lock cart: %w", err)
	}
	return cartID, nil
}

func bumpCartVersion(ctx context.Context, tx *sql.Tx, cartID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE carts SET version = version + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), cartID,
	)
	if err != nil {
		return fmt.Errorf("bump cart version: %w", err)
	}
	return nil
}
