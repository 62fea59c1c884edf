package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

const productColumns = `id, name, description, price, stock, category_id, created_at, updated_at`

// productOrderBy whitelists the ORDER BY clause per sort key; id breaks ties
// so paging is stable.
var productOrderBy = map[domain.ProductSort]string{
	domain.SortNameAsc:       `name ASC, id`,
	domain.SortNameDesc:      `name DESC, id`,
	domain.SortPriceAsc:      `price ASC, id`,
	domain.SortPriceDesc:     `price DESC, id`,
	domain.SortCreatedAtDesc: `created_at DESC, id`,
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int, error) {
	var conds []string
	var args []any
	if q.CategoryID != "" {
		conds = append(conds, `category_id = ?`)
		args = append(args, q.CategoryID)
	}
	if q.Search != "" {
		conds = append(conds, `(name LIKE ? OR description LIKE ?)`)
		pattern := "%" + q.Search + "%"
		args = append(args, pattern, pattern)
	}
	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}

	orderBy, ok := productOrderBy[q.Sort]
	if !ok {
		orderBy = productOrderBy[domain.SortCreatedAtDesc]
	}

	var total int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	offset := q.Offset()
	if offset < 0 || offset >= total {
		return []domain.Product{}, total, nil
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products`+where+`
		ORDER BY `+orderBy+`
		LIMIT ? OFFSET ?`,
		append(args, q.Limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return products, total, nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := scanProduct(m.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = ?`, productID,
	), &p)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// UpdateProduct reads and writes the row inside one transaction so concurrent
// admin edits to different fields are not lost.
func (m *MySQLAdapter) UpdateProduct(ctx context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	var p domain.Product

	err := m.withTx(ctx, func(tx *sql.Tx) error {
		err := scanProduct(tx.QueryRowContext(ctx, `
			SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, productID,
		), &p)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}

		p.Apply(patch)
		p.UpdatedAt = time.Now().UTC()

		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = ?, description = ?, price = ?, stock = ?, category_id = ?, updated_at = ?
			WHERE id = ?`,
			p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.UpdatedAt, p.ID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrCategoryNotFound
			}
			return fmt.Errorf("update product: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrProductNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotFound
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// DeleteProduct bumps the version of every cart holding the product before
// the cascade removes its lines, so an in-flight conversion fails its CAS.
func (m *MySQLAdapter) DeleteProduct(ctx context.Context, productID string) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE carts SET version = version + 1, updated_at = ?
			WHERE id IN (SELECT cart_id FROM cart_items WHERE product_id = ?)`,
			time.Now().UTC(), productID,
		)
		if err != nil {
			return fmt.Errorf("bump cart versions: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, productID)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrProductNotFound
		}
		return nil
	})
}
