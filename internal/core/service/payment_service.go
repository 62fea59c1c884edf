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

const webhookKeyPrefix = "webhook:"

type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

type PaymentService struct {
	orders  port.OrderRepository
	gateway port.PaymentGateway
	cache   port.CacheRepository
	cfg     CheckoutConfig
	logger  *zap.Logger
}

func NewPaymentService(orders port.OrderRepository, gateway port.PaymentGateway, cache port.CacheRepository, cfg CheckoutConfig, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orders:  orders,
		gateway: gateway,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

type orderPaidPayload struct {
	OrderID   string `json:"orderId"`
	SessionID string `json:"sessionId"`
	Amount    string `json:"amount"`
}

// CreateCheckoutSession asks the payment processor for a hosted checkout
// session covering the order's snapshot line items.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, userID, orderID string) (*domain.CheckoutSession, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("create checkout session: %w", domain.ErrOrderNotFound)
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("create checkout session: %w", domain.ErrOrderNotPayable)
	}

	req := domain.CheckoutRequest{
		OrderID:    order.ID,
		Currency:   s.cfg.Currency,
		LineItems:  BuildLineItems(order.Items),
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.logger.Error("checkout session creation failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("create checkout session: %w: %w", domain.ErrUpstream, err)
	}

	s.logger.Info("checkout session created", zap.String("order_id", orderID), zap.String("session_id", session.ID))
	return session, nil
}

// BuildLineItems converts order snapshot prices to minor-unit line items.
func BuildLineItems(items []domain.OrderItem) []domain.CheckoutLineItem {
	lineItems := make([]domain.CheckoutLineItem, 0, len(items))
	for _, item := range items {
		name := item.ProductName
		if name == "" {
			name = item.ProductID
		}
		lineItems = append(lineItems, domain.CheckoutLineItem{
			Name:       name,
			UnitAmount: domain.ToMinorUnits(item.Price),
			Quantity:   int64(item.Quantity),
		})
	}
	return lineItems
}

// HandleWebhook verifies and applies a payment processor notification.
// Only signature failures and store failures are returned as errors;
// irrelevant or unmatched events are acknowledged.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("webhook signature verification failed", zap.Error(err))
		if errors.Is(err, domain.ErrSignatureInvalid) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrSignatureInvalid, err)
	}

	log := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	if event.Type != domain.EventCheckoutSessionCompleted {
		log.Info("unhandled webhook event type")
		return nil
	}
	if event.OrderID == "" {
		log.Warn("checkout session without order metadata", zap.String("session_id", event.SessionID))
		return nil
	}

	dedupKey := webhookKeyPrefix + event.ID
	seen, err := s.cache.IsProcessed(ctx, dedupKey)
	if err != nil {
		log.Warn("webhook dedup lookup failed", zap.Error(err))
	}
	if seen {
		log.Info("duplicate webhook event ignored")
		return nil
	}

	amount := domain.FromMinorUnits(event.AmountTotal)
	paidEvent, err := domain.NewOutboxEvent(uuid.NewString(), event.OrderID, domain.EventOrderPaid, orderPaidPayload{
		OrderID:   event.OrderID,
		SessionID: event.SessionID,
		Amount:    amount.StringFixed(2),
	})
	if err != nil {
		return fmt.Errorf("build paid event: %w", err)
	}

	payment := domain.Payment{
		ID:                uuid.NewString(),
		OrderID:           event.OrderID,
		ExternalSessionID: event.SessionID,
		Amount:            amount,
		Status:            domain.PaymentStatusSucceeded,
		CreatedAt:         time.Now().UTC(),
	}

	result, err := s.orders.ConfirmPayment(ctx, payment, paidEvent)
	if errors.Is(err, domain.ErrOrderNotFound) {
		log.Warn("webhook references unknown order", zap.String("order_id", event.OrderID))
		return nil
	}
	if err != nil {
		log.Error("payment confirmation failed", zap.String("order_id", event.OrderID), zap.Error(err))
		return fmt.Errorf("confirm payment: %w: %w", domain.ErrUpstream, err)
	}

	switch {
	case !result.PaymentCreated:
		log.Info("payment already recorded", zap.String("order_id", event.OrderID))
	case !result.StatusChanged:
		log.Warn("payment recorded without status change",
			zap.String("order_id", event.OrderID),
			zap.String("status", string(result.PreviousStatus)))
	default:
		log.Info("payment confirmed", zap.String("order_id", event.OrderID), zap.String("amount", amount.StringFixed(2)))
	}

	if _, err := s.cache.SetIdempotency(ctx, dedupKey); err != nil {
		log.Warn("webhook dedup mark failed", zap.Error(err))
	}
	return nil
}
