package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type OrderService struct {
	carts  port.CartRepository
	orders port.OrderRepository
	locker cartLocker
	logger *zap.Logger
}

func NewOrderService(carts port.CartRepository, orders port.OrderRepository, cache port.CacheRepository, lockTTL time.Duration, logger *zap.Logger) *OrderService {
	return &OrderService{
		carts:  carts,
		orders: orders,
		locker: cartLocker{cache: cache, ttl: lockTTL, logger: logger},
		logger: logger,
	}
}

type orderCreatedPayload struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
	Total   string `json:"total"`
	Items   int    `json:"items"`
}

type orderStatusPayload struct {
	OrderID string             `json:"orderId"`
	From    domain.OrderStatus `json:"from"`
	To      domain.OrderStatus `json:"to"`
}

// CreateOrderFromCart converts the user's cart into a PENDING order with
// price snapshots and empties the cart in the same transaction.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, userID string) (*domain.Order, error) {
	var order domain.Order

	err := s.locker.withLock(ctx, userID, func() error {
		cart, err := s.carts.GetOrCreateCart(ctx, userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		order = buildOrder(cart)

		event, err := domain.NewOutboxEvent(uuid.NewString(), order.ID, domain.EventOrderCreated, orderCreatedPayload{
			OrderID: order.ID,
			UserID:  order.UserID,
			Total:   order.Total.StringFixed(2),
			Items:   len(order.Items),
		})
		if err != nil {
			return fmt.Errorf("build order event: %w", err)
		}

		return s.orders.CreateOrderFromCart(ctx, *cart, order, event)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrConflict) {
			s.logger.Error("order conversion failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	return &order, nil
}

func buildOrder(cart *domain.Cart) domain.Order {
	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		UserID:    cart.UserID,
		Total:     cart.Total(),
		Status:    domain.OrderStatusPending,
		Items:     make([]domain.OrderItem, 0, len(cart.Items)),
		Payments:  []domain.Payment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, line := range cart.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       line.Product.Price,
		})
	}
	return order
}

// GetOrder returns the order only if it belongs to userID.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("get order: %w", domain.ErrOrderNotFound)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order along one forward edge of the state machine.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	current := order.Status
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s -> %s: %w", current, next, domain.ErrInvalidTransition)
	}

	event, err := domain.NewOutboxEvent(uuid.NewString(), orderID, domain.EventOrderStatusChanged, orderStatusPayload{
		OrderID: orderID, From: current, To: next,
	})
	if err != nil {
		return nil, fmt.Errorf("build status event: %w", err)
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, current, next, event); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.Info("order status changed",
		zap.String("order_id", orderID),
		zap.String("from", string(current)),
		zap.String("to", string(next)))

	return s.orders.GetOrder(ctx, orderID)
}
