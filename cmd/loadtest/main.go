package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const (
	defaultRedisAddr = "localhost:6379"
	users            = 10
	requestsPerUser  = 25
	lockTTL          = 10 * time.Second
)

func main() {
	ctx := context.Background()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = defaultRedisAddr
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	store, err := openStore(ctx)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	runID := time.Now().UnixNano()
	productID := fmt.Sprintf("loadtest-product-%d", runID)
	now := time.Now().UTC()
	if err := store.CreateProduct(ctx, domain.Product{
		ID: productID, Name: "Load test product", Price: decimal.RequireFromString("19.99"),
		Stock: users * requestsPerUser, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	cache := storage.NewRedisAdapter(rdb)
	logger := zap.NewNop()
	carts := service.NewCartService(store, cache, lockTTL, logger)
	orders := service.NewOrderService(store, store, cache, lockTTL, logger)

	userIDs := make([]string, users)
	for i := range userIDs {
		userIDs[i] = fmt.Sprintf("loadtest-user-%d-%d", runID, i)
		if _, err := carts.AddItem(ctx, userIDs[i], productID, 2); err != nil {
			log.Fatalf("failed to fill cart: %v", err)
		}
	}

	// Counters
	var successCount, conflictCount, emptyCount, errorCount atomic.Int32

	// Every user fires requestsPerUser concurrent conversions of the same cart
	var wg sync.WaitGroup
	start := time.Now()

	for _, userID := range userIDs {
		for i := 0; i < requestsPerUser; i++ {
			wg.Add(1)
			go func(userID string) {
				defer wg.Done()

				_, err := orders.CreateOrderFromCart(ctx, userID)
				switch {
				case err == nil:
					successCount.Add(1)
				case errors.Is(err, domain.ErrConflict):
					conflictCount.Add(1)
				case errors.Is(err, domain.ErrEmptyCart):
					emptyCount.Add(1)
				default:
					errorCount.Add(1)
					log.Printf("unexpected error for %s: %v", userID, err)
				}
			}(userID)
		}
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== LOAD TEST RESULTS ==========")
	fmt.Printf("Users:            %d\n", users)
	fmt.Printf("Total Requests:   %d\n", users*requestsPerUser)
	fmt.Printf("Orders created:   %d\n", successCount.Load())
	fmt.Printf("Conflicts:        %d\n", conflictCount.Load())
	fmt.Printf("Empty cart:       %d\n", emptyCount.Load())
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("========================================")

	failed := false
	if successCount.Load() != users {
		fmt.Printf("FAIL: expected %d orders, got %d\n", users, successCount.Load())
		failed = true
	}

	for _, userID := range userIDs {
		list, err := orders.ListOrders(ctx, userID)
		if err != nil {
			log.Fatalf("failed to list orders: %v", err)
		}
		if len(list) != 1 {
			fmt.Printf("FAIL: user %s has %d orders\n", userID, len(list))
			failed = true
		}
		cart, err := carts.GetCart(ctx, userID)
		if err != nil {
			log.Fatalf("failed to load cart: %v", err)
		}
		if !cart.IsEmpty() {
			fmt.Printf("FAIL: user %s cart still has %d lines\n", userID, len(cart.Items))
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("PASS: exactly one order per cart, every cart emptied")
}

func openStore(ctx context.Context) (port.Store, error) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		log.Println("MYSQL_DSN not set, using in-memory store")
		return storage.NewMemoryStore(), nil
	}

	db, err := storage.OpenMySQL(ctx, dsn)
	if err != nil {
		return nil, err
	}
	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return adapter, nil
}
