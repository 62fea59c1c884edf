package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type ProductRepository interface {
	ListProducts(ctx context.Context, query domain.ProductQuery) ([]domain.Product, int, error)

	// GetProduct returns domain.ErrProductNotFound when absent
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	CreateProduct(ctx context.Context, product domain.Product) error

	// UpdateProduct applies patch under a row lock and returns the stored row.
	// Returns domain.ErrProductNotFound or domain.ErrCategoryNotFound.
	UpdateProduct(ctx context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error)

	// DeleteProduct removes the product with its cart lines, reviews and
	// wishlist entries. Order items keep their snapshots.
	DeleteProduct(ctx context.Context, productID string) error
}

type CategoryRepository interface {
	// ListCategories returns every category with its product count, by name
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// GetCategory returns domain.ErrCategoryNotFound when absent
	GetCategory(ctx context.Context, categoryID string) (*domain.Category, error)

	// CreateCategory returns domain.ErrCategoryExists on a duplicate name
	CreateCategory(ctx context.Context, category domain.Category) error

	UpdateCategory(ctx context.Context, category domain.Category) error

	// DeleteCategory detaches the category's products rather than deleting them
	DeleteCategory(ctx context.Context, categoryID string) error
}

type ReviewRepository interface {
	ListReviewsByUser(ctx context.Context, userID string) ([]domain.Review, error)

	ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error)

	// GetReview returns domain.ErrReviewNotFound when absent
	GetReview(ctx context.Context, reviewID string) (*domain.Review, error)

	// CreateReview returns domain.ErrAlreadyReviewed if the user already
	// reviewed the product
	CreateReview(ctx context.Context, review domain.Review) error

	// UpdateReview and DeleteReview only touch rows owned by the review's user
	UpdateReview(ctx context.Context, review domain.Review) error

	DeleteReview(ctx context.Context, userID, reviewID string) error
}

type WishlistRepository interface {
	ListWishlist(ctx context.Context, userID string) ([]domain.WishlistItem, error)

	// AddWishlistItem returns domain.ErrAlreadyInWishlist for a repeated product
	AddWishlistItem(ctx context.Context, userID string, item domain.WishlistItem) error

	RemoveWishlistItem(ctx context.Context, userID, productID string) error

	ClearWishlist(ctx context.Context, userID string) error
}

type AnalyticsRepository interface {
	SalesReport(ctx context.Context, query domain.SalesReportQuery) (*domain.SalesReport, error)
}

type CartRepository interface {
	// GetOrCreateCart loads the user's cart joined to current product rows,
	// creating an empty one when none exists
	GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error)

	// AddItem increments the line quantity (inserting it if absent) and bumps the cart version
	AddItem(ctx context.Context, userID, productID string, quantity int) error

	// SetItemQuantity returns domain.ErrCartItemNotFound if the line is absent
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error

	RemoveItem(ctx context.Context, userID, productID string) error

	ClearCart(ctx context.Context, userID string) error
}

type OrderRepository interface {
	// CreateOrderFromCart atomically checks the cart version, persists the
	// order with its items, deletes the cart lines and appends the outbox event.
	// Returns domain.ErrCartModified if the cart version moved.
	CreateOrderFromCart(ctx context.Context, cart domain.Cart, order domain.Order, event domain.OutboxEvent) error

	// GetOrder returns domain.ErrOrderNotFound when absent
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)

	ListAllOrders(ctx context.Context) ([]domain.Order, error)

	// UpdateOrderStatus applies from -> to only if the stored status is still from.
	// Returns domain.ErrStatusChanged otherwise.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, event domain.OutboxEvent) error

	// ConfirmPayment applies PENDING -> PROCESSING and records the payment
	// unless a payment for the same external session already exists.
	ConfirmPayment(ctx context.Context, payment domain.Payment, event domain.OutboxEvent) (domain.ConfirmResult, error)
}

type OutboxRepository interface {
	GetUnpublishedEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error)

	MarkEventPublished(ctx context.Context, eventID string) error
}

// Store is the full persistence surface used by the services
type Store interface {
	ProductRepository
	CartRepository
	OrderRepository
	OutboxRepository
	CategoryRepository
	ReviewRepository
	WishlistRepository
	AnalyticsRepository
	Ping(ctx context.Context) error
	Close() error
}
