package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
)

const validSignature = "t=1,v1=valid"

// mockGateway records checkout requests and accepts webhooks signed with validSignature.
type mockGateway struct {
	mu        sync.Mutex
	requests  []domain.CheckoutRequest
	createErr error
}

func (m *mockGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	m.requests = append(m.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(m.requests))
	return &domain.CheckoutSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (m *mockGateway) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if signature != validSignature {
		return nil, fmt.Errorf("bad header: %w", domain.ErrSignatureInvalid)
	}
	var event domain.PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

type testEnv struct {
	store    *storage.MemoryStore
	cache    *storage.RedisAdapter
	redis    *miniredis.Miniredis
	gateway  *mockGateway
	carts    *CartService
	orders   *OrderService
	payments *PaymentService
	products *ProductService

	categories *CategoryService
	reviews    *ReviewService
	wishlist   *WishlistService
	analytics  *AnalyticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := storage.NewMemoryStore()
	cache := storage.NewRedisAdapter(client)
	gateway := &mockGateway{}
	logger := zap.NewNop()

	return &testEnv{
		store:   store,
		cache:   cache,
		redis:   mr,
		gateway: gateway,
		carts:   NewCartService(store, cache, 10*time.Second, logger),
		orders:  NewOrderService(store, store, cache, 10*time.Second, logger),
		payments: NewPaymentService(store, gateway, cache, CheckoutConfig{
			Currency:   "usd",
			SuccessURL: "http://localhost:3000/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  "http://localhost:3000/cancel",
		}, logger),
		products: NewProductService(store, logger),

		categories: NewCategoryService(store, logger),
		reviews:    NewReviewService(store, store, logger),
		wishlist:   NewWishlistService(store, store, logger),
		analytics:  NewAnalyticsService(store),
	}
}

func (e *testEnv) seedProduct(t *testing.T, id, name, price string) {
	t.Helper()
	now := time.Now().UTC()
	err := e.store.CreateProduct(context.Background(), domain.Product{
		ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: 100,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err, "seed product")
}

// seedScenarioCart fills user's cart with product A (10.00 x2) and product B (5.00 x1).
func (e *testEnv) seedScenarioCart(t *testing.T, userID string) {
	t.Helper()
	e.seedProduct(t, "prod-a", "Product A", "10.00")
	e.seedProduct(t, "prod-b", "Product B", "5.00")

	ctx := context.Background()
	_, err := e.carts.AddItem(ctx, userID, "prod-a", 2)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, userID, "prod-b", 1)
	require.NoError(t, err)
}

func completedEvent(t *testing.T, eventID, sessionID, orderID string, amount int64) []byte {
	t.Helper()
	payload, err := json.Marshal(domain.PaymentEvent{
		ID:          eventID,
		Type:        domain.EventCheckoutSessionCompleted,
		SessionID:   sessionID,
		OrderID:     orderID,
		AmountTotal: amount,
	})
	require.NoError(t, err, "marshal event")
	return payload
}

// racingCartRepo mutates the cart right after it is read, simulating a
// writer that bypassed the advisory lock.
type racingCartRepo struct {
	*storage.MemoryStore
	once sync.Once
}

func (r *racingCartRepo) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.MemoryStore.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.once.Do(func() {
		_ = r.MemoryStore.AddItem(ctx, userID, cart.Items[0].ProductID, 1)
	})
	return cart, nil
}
