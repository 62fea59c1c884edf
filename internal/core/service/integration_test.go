package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
)

type integrationEnv struct {
	redis    *redis.Client
	db       *storage.MySQLAdapter
	carts    *CartService
	orders   *OrderService
	payments *PaymentService
	gateway  *mockGateway
	cleanup  func()
}

func setupIntegrationEnv(t *testing.T) *integrationEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/storefront?parseTime=true&multiStatements=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := storage.OpenMySQL(context.Background(), mysqlDSN)
	if err != nil {
		rdb.Close()
		t.Skipf("MySQL not available: %v", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	require.NoError(t, adapter.RunMigrations(), "migrations failed")

	cache := storage.NewRedisAdapter(rdb)
	gateway := &mockGateway{}
	logger := zap.NewNop()

	return &integrationEnv{
		redis:   rdb,
		db:      adapter,
		carts:   NewCartService(adapter, cache, 10*time.Second, logger),
		orders:  NewOrderService(adapter, adapter, cache, 10*time.Second, logger),
		gateway: gateway,
		payments: NewPaymentService(adapter, gateway, cache, CheckoutConfig{
			Currency: "usd", SuccessURL: "http://localhost/success", CancelURL: "http://localhost/cancel",
		}, logger),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func (e *integrationEnv) seedProduct(t *testing.T, price string) string {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	id := uuid.NewString()
	err := e.db.CreateProduct(context.Background(), domain.Product{
		ID: id, Name: "Integration " + id[:8], Price: decimal.RequireFromString(price),
		Stock: 100, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err, "seed product")
	return id
}

func TestIntegration_ConcurrentConversionCreatesOneOrder(t *testing.T) {
	env := setupIntegrationEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	userID := "integration-" + uuid.NewString()
	productA := env.seedProduct(t, "10.00")
	productB := env.seedProduct(t, "5.00")

	_, err := env.carts.AddItem(ctx, userID, productA, 2)
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, userID, productB, 1)
	require.NoError(t, err)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orders.CreateOrderFromCart(ctx, userID)
			if err == nil {
				successCount.Add(1)
				return
			}
			if !errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrEmptyCart) {
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successCount.Load())

	orders, err := env.orders.ListOrders(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "25.00", orders[0].Total.StringFixed(2))

	cart, err := env.carts.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty(), "expected empty cart, got %d lines", len(cart.Items))
}

func TestIntegration_WebhookIdempotency(t *testing.T) {
	env := setupIntegrationEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	userID := "integration-" + uuid.NewString()
	productID := env.seedProduct(t, "12.34")

	_, err := env.carts.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)
	order, err := env.orders.CreateOrderFromCart(ctx, userID)
	require.NoError(t, err)

	eventID := "evt_" + uuid.NewString()
	sessionID := "cs_" + uuid.NewString()
	payload := completedEvent(t, eventID, sessionID, order.ID, 1234)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.payments.HandleWebhook(ctx, payload, validSignature))
		}()
	}
	wg.Wait()

	stored, err := env.orders.GetOrder(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, stored.Status)
	assert.Len(t, stored.Payments, 1)

	env.redis.Del(ctx, webhookKeyPrefix+eventID)
}
