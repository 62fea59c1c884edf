package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func seedMemoryProduct(t *testing.T, s *MemoryStore, id, price string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.CreateProduct(context.Background(), domain.Product{
		ID: id, Name: "product " + id, Price: decimal.RequireFromString(price), Stock: 10,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func TestMemoryStore_CartMutationsBumpVersion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedMemoryProduct(t, s, "p1", "10.00")

	cart, err := s.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	start := cart.Version

	require.NoError(t, s.AddItem(ctx, "user-1", "p1", 2))
	require.NoError(t, s.AddItem(ctx, "user-1", "p1", 1))

	cart, err = s.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, start+2, cart.Version)

	require.NoError(t, s.SetItemQuantity(ctx, "user-1", "p1", 0))
	cart, err = s.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.ErrorIs(t, s.SetItemQuantity(ctx, "user-1", "p1", 4), domain.ErrCartItemNotFound)
	assert.ErrorIs(t, s.AddItem(ctx, "user-1", "missing", 1), domain.ErrProductNotFound)
}

func TestMemoryStore_CreateOrderFromCart_StaleVersion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedMemoryProduct(t, s, "p1", "10.00")
	require.NoError(t, s.AddItem(ctx, "user-1", "p1", 1))

	cart, err := s.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, s.AddItem(ctx, "user-1", "p1", 1))

	order := domain.Order{ID: "o1", UserID: "user-1", Status: domain.OrderStatusPending}
	err = s.CreateOrderFromCart(ctx, *cart, order, domain.OutboxEvent{ID: "e1"})
	assert.ErrorIs(t, err, domain.ErrCartModified)

	_, err = s.GetOrder(ctx, "o1")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestMemoryStore_ListProducts_Pagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		seedMemoryProduct(t, s, id, "1.00")
	}

	products, total, err := s.ListProducts(ctx, domain.ProductQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, products, 1)

	products, total, err = s.ListProducts(ctx, domain.ProductQuery{Search: "PRODUCT B", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "b", products[0].ID)
}

func TestMemoryStore_Outbox(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedMemoryProduct(t, s, "p1", "10.00")
	require.NoError(t, s.AddItem(ctx, "user-1", "p1", 1))
	cart, err := s.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)

	order := domain.Order{ID: "o1", UserID: "user-1", Status: domain.OrderStatusPending}
	require.NoError(t, s.CreateOrderFromCart(ctx, *cart, order, domain.OutboxEvent{ID: "e1", AggregateID: "o1"}))

	events, err := s.GetUnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, s.MarkEventPublished(ctx, "e1"))
	events, err = s.GetUnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMemoryStore_ListProducts_OffsetOutOfRange(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedMemoryProduct(t, s, "a", "1.00")

	// (page-1)*limit wraps negative for this page
	products, total, err := s.ListProducts(ctx, domain.ProductQuery{Page: 922337203685477582, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, products)

	products, _, err = s.ListProducts(ctx, domain.ProductQuery{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestMemoryStore_UpdateProduct(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedMemoryProduct(t, s, "p1", "10.00")

	name := "renamed"
	p, err := s.UpdateProduct(ctx, "p1", domain.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.Name)
	assert.Equal(t, "10.00", p.Price.StringFixed(2))

	_, err = s.UpdateProduct(ctx, "missing", domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	category := "no-such-category"
	_, err = s.UpdateProduct(ctx, "p1", domain.ProductPatch{CategoryID: &category})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestMemoryStore_DeleteProductCascades(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedMemoryProduct(t, s, "p1", "10.00")
	seedMemoryProduct(t, s, "p2", "2.00")

	require.NoError(t, s.AddItem(ctx, "user-1", "p1", 1))
	require.NoError(t, s.AddItem(ctx, "user-1", "p2", 1))
	require.NoError(t, s.AddWishlistItem(ctx, "user-1", domain.WishlistItem{ProductID: "p1", AddedAt: time.Now()}))
	require.NoError(t, s.CreateReview(ctx, domain.Review{ID: "r1", UserID: "user-1", ProductID: "p1", Rating: 3}))

	before, err := s.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, s.DeleteProduct(ctx, "p1"))
	assert.ErrorIs(t, s.DeleteProduct(ctx, "p1"), domain.ErrProductNotFound)

	after, err := s.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Equal(t, "p2", after.Items[0].ProductID)
	assert.Greater(t, after.Version, before.Version)

	items, err := s.ListWishlist(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = s.GetReview(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
}

func TestMemoryStore_ListProducts_CategoryAndSort(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, domain.Category{ID: "c1", Name: "Lamps"}))

	catID := "c1"
	now := time.Now().UTC()
	for _, p := range []domain.Product{
		{ID: "a", Name: "Zeta", Price: decimal.RequireFromString("3.00"), CategoryID: &catID, CreatedAt: now},
		{ID: "b", Name: "Alpha", Price: decimal.RequireFromString("9.00"), CategoryID: &catID, CreatedAt: now.Add(time.Second)},
		{ID: "c", Name: "Mid", Price: decimal.RequireFromString("1.00"), CreatedAt: now.Add(2 * time.Second)},
	} {
		require.NoError(t, s.CreateProduct(ctx, p))
	}

	products, total, err := s.ListProducts(ctx, domain.ProductQuery{CategoryID: "c1", Sort: domain.SortNameAsc, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "b", products[0].ID)
	assert.Equal(t, "a", products[1].ID)

	products, _, err = s.ListProducts(ctx, domain.ProductQuery{Sort: domain.SortPriceAsc, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, []string{products[0].ID, products[1].ID, products[2].ID})

	products, _, err = s.ListProducts(ctx, domain.ProductQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "c", products[0].ID, "newest first by default")

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 2, categories[0].ProductCount)

	orphan := "missing"
	err = s.CreateProduct(ctx, domain.Product{ID: "d", CategoryID: &orphan})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestMemoryStore_ReviewsUniquePerUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedMemoryProduct(t, s, "p1", "10.00")

	require.NoError(t, s.CreateReview(ctx, domain.Review{ID: "r1", UserID: "u1", ProductID: "p1", Rating: 5}))
	assert.ErrorIs(t, s.CreateReview(ctx, domain.Review{ID: "r2", UserID: "u1", ProductID: "p1", Rating: 1}), domain.ErrAlreadyReviewed)
	assert.ErrorIs(t, s.CreateReview(ctx, domain.Review{ID: "r3", UserID: "u1", ProductID: "nope", Rating: 1}), domain.ErrProductNotFound)
	require.NoError(t, s.CreateReview(ctx, domain.Review{ID: "r4", UserID: "u2", ProductID: "p1", Rating: 2}))

	reviews, err := s.ListReviewsByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, "product p1", reviews[0].ProductName)
}
