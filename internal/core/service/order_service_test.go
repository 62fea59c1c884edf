package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestCreateOrderFromCart_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	order, err := env.orders.CreateOrderFromCart(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, order.Total.Equal(decimal.RequireFromString("25.00")), "total %s", order.Total)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)

	subtotals := map[string]string{}
	for _, item := range order.Items {
		subtotals[item.ProductID] = item.Subtotal().StringFixed(2)
	}
	assert.Equal(t, map[string]string{"prod-a": "20.00", "prod-b": "5.00"}, subtotals)

	cart, err := env.carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty(), "expected empty cart, got %d lines", len(cart.Items))

	events, err := env.store.GetUnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOrderCreated, events[0].EventType)
}

func TestCreateOrderFromCart_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.orders.CreateOrderFromCart(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.ErrorIs(t, err, domain.ErrValidation)

	orders, err := env.orders.ListOrders(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderFromCart_PriceSnapshotFrozen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	order, err := env.orders.CreateOrderFromCart(ctx, "user-1")
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("99.99")
	_, err = env.products.UpdateProduct(ctx, "prod-a", domain.ProductPatch{Price: &newPrice})
	require.NoError(t, err)

	stored, err := env.orders.GetOrder(ctx, "user-1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", stored.Total.StringFixed(2))
	for _, item := range stored.Items {
		if item.ProductID == "prod-a" {
			assert.Equal(t, "10.00", item.Price.StringFixed(2))
		}
	}
}

func TestCreateOrderFromCart_LockHeld(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	token, err := env.cache.AcquireLock(ctx, cartLockPrefix+"user-1", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = env.orders.CreateOrderFromCart(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrConversionInProgress)

	cart, err := env.carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCreateOrderFromCart_StaleCartRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	racing := &racingCartRepo{MemoryStore: env.store}
	svc := NewOrderService(racing, env.store, env.cache, 10*time.Second, zap.NewNop())

	_, err := svc.CreateOrderFromCart(ctx, "user-1")
	require.ErrorIs(t, err, domain.ErrCartModified)

	orders, err := env.orders.ListOrders(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, orders)

	cart, err := env.carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, cart.IsEmpty(), "cart lines must survive a rejected conversion")
}

func TestCreateOrderFromCart_DeletedProductInvalidatesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	cart, err := env.store.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, env.products.DeleteProduct(ctx, "prod-b"))

	err = env.store.CreateOrderFromCart(ctx, *cart, domain.Order{ID: "order-1", UserID: "user-1"}, domain.OutboxEvent{ID: "evt-1"})
	assert.ErrorIs(t, err, domain.ErrCartModified)

	order, err := env.orders.CreateOrderFromCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "prod-a", order.Items[0].ProductID)
	assert.Equal(t, "20.00", order.Total.StringFixed(2))
}

func TestCreateOrderFromCart_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orders.CreateOrderFromCart(ctx, "user-1")
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrEmptyCart):
			default:
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	assert.EqualValues(t, 1, successCount.Load())
	orders, err := env.orders.ListOrders(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestGetOrder_OtherUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	order, err := env.orders.CreateOrderFromCart(ctx, "user-1")
	require.NoError(t, err)

	_, err = env.orders.GetOrder(ctx, "user-2", order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	order, err := env.orders.CreateOrderFromCart(ctx, "user-1")
	require.NoError(t, err)

	_, err = env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusShipped)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "PENDING -> SHIPPED")

	updated, err := env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)

	_, err = env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "status must never regress")

	_, err = env.orders.UpdateOrderStatus(ctx, "missing", domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
