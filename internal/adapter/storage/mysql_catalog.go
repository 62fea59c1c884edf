package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

const reviewColumns = `r.id, r.user_id, r.product_id, COALESCE(p.name, ''), r.rating, r.comment, r.created_at, r.updated_at`

func (m *MySQLAdapter) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, COUNT(p.id), c.created_at, c.updated_at
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id, c.name, c.description, c.created_at, c.updated_at
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ProductCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return categories, nil
}

func (m *MySQLAdapter) GetCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	var c domain.Category
	err := m.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.description,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id),
		       c.created_at, c.updated_at
		FROM categories c WHERE c.id = ?`, categoryID,
	).Scan(&c.ID, &c.Name, &c.Description, &c.ProductCount, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) CreateCategory(ctx context.Context, c domain.Category) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrCategoryExists
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateCategory(ctx context.Context, c domain.Category) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Description, c.UpdatedAt, c.ID,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrCategoryExists
		}
		return fmt.Errorf("update category: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (m *MySQLAdapter) DeleteCategory(ctx context.Context, categoryID string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, categoryID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (m *MySQLAdapter) ListReviewsByUser(ctx context.Context, userID string) ([]domain.Review, error) {
	return m.listReviews(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r LEFT JOIN products p ON p.id = r.product_id
		WHERE r.user_id = ? ORDER BY r.created_at DESC`, userID)
}

func (m *MySQLAdapter) ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	return m.listReviews(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r LEFT JOIN products p ON p.id = r.product_id
		WHERE r.product_id = ? ORDER BY r.created_at DESC`, productID)
}

func (m *MySQLAdapter) listReviews(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var r domain.Review
		if err := scanReview(rows, &r); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return reviews, nil
}

func scanReview(row rowScanner, r *domain.Review) error {
	return row.Scan(&r.ID, &r.UserID, &r.ProductID, &r.ProductName, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
}

func (m *MySQLAdapter) GetReview(ctx context.Context, reviewID string) (*domain.Review, error) {
	var r domain.Review
	err := scanReview(m.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r LEFT JOIN products p ON p.id = r.product_id
		WHERE r.id = ?`, reviewID,
	), &r)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query review: %w", err)
	}
	return &r, nil
}

// CreateReview relies on uq_reviews_user_product, so two concurrent first
// reviews by one user cannot both land.
func (m *MySQLAdapter) CreateReview(ctx context.Context, r domain.Review) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, product_id, rating, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ProductID, r.Rating, r.Comment, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrAlreadyReviewed
		}
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateReview(ctx context.Context, r domain.Review) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE reviews SET rating = ?, comment = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.Rating, r.Comment, r.UpdatedAt, r.ID, r.UserID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (m *MySQLAdapter) DeleteReview(ctx context.Context, userID, reviewID string) error {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM reviews WHERE id = ? AND user_id = ?`, reviewID, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (m *MySQLAdapter) ListWishlist(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT w.created_at,
		       p.id, p.name, p.description, p.price, p.stock, p.category_id, p.created_at, p.updated_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = ?
		ORDER BY w.created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query wishlist: %w", err)
	}
	defer rows.Close()

	items := []domain.WishlistItem{}
	for rows.Next() {
		var item domain.WishlistItem
		p := &item.Product
		if err := rows.Scan(&item.AddedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist row: %w", err)
		}
		item.ProductID = p.ID
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func (m *MySQLAdapter) AddWishlistItem(ctx context.Context, userID string, item domain.WishlistItem) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (user_id, product_id, created_at)
		VALUES (?, ?, ?)`,
		userID, item.ProductID, item.AddedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrAlreadyInWishlist
		}
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	if _, err := m.db.ExecContext(ctx, `
		DELETE FROM wishlist_items WHERE user_id = ? AND product_id = ?`, userID, productID); err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ClearWishlist(ctx context.Context, userID string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}
