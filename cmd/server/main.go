package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/payment"
	"github.com/rl1809/storefront/internal/adapter/publisher"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize store
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	// Initialize adapters
	redisAdapter := storage.NewRedisAdapter(rdb)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)

	// Initialize services
	productService := service.NewProductService(store, logger)
	cartService := service.NewCartService(store, redisAdapter, cfg.CartLockTTL, logger)
	orderService := service.NewOrderService(store, store, redisAdapter, cfg.CartLockTTL, logger)
	paymentService := service.NewPaymentService(store, gateway, redisAdapter, service.CheckoutConfig{
		Currency:   cfg.Currency,
		SuccessURL: cfg.SuccessURL(),
		CancelURL:  cfg.CancelURL(),
	}, logger)

	// Start outbox poller
	poller := publisher.NewOutboxPoller(store, publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...),
		cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(ctx)
	}()
	logger.Info("outbox poller started", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))

	limiter := handler.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.RunCleanup(ctx, time.Minute)

	// Initialize gRPC health server
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"store": store,
		"redis": redisAdapter,
	}, logger)
	go healthHandler.Run(ctx, 10*time.Second)

	grpcServer := grpc.NewServer()
	healthHandler.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(handler.Services{
		Products:   productService,
		Carts:      cartService,
		Orders:     orderService,
		Payments:   paymentService,
		Categories: service.NewCategoryService(store, logger),
		Reviews:    service.NewReviewService(store, store, logger),
		Wishlist:   service.NewWishlistService(store, store, logger),
		Analytics:  service.NewAnalyticsService(store),
	}, logger)
	httpServer := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: httpHandler.Router(handler.RouterConfig{
			JWTSecret:      []byte(cfg.JWTSecret),
			AllowedOrigins: cfg.AllowedOrigins(),
			RequestTimeout: cfg.RequestTimeout,
			Limiter:        limiter,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	healthHandler.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Stop background workers
	cancel()
	<-pollerDone
	if err := poller.Close(); err != nil {
		logger.Warn("kafka writer close failed", zap.Error(err))
	}
	logger.Info("outbox poller stopped")

	// Close connections
	rdb.Close()
	store.Close()
	logger.Info("connections closed")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.Store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	db, err := storage.OpenMySQL(ctx, cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to mysql")

	adapter := storage.NewMySQLAdapter(db)
	if cfg.RunMigrations {
		if err := adapter.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("migrations applied")
	}
	return adapter, nil
}
