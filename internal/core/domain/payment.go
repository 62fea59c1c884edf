package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"

type Payment struct {
	ID                string          `json:"id"`
	OrderID           string          `json:"orderId"`
	ExternalSessionID string          `json:"externalSessionId"`
	Amount            decimal.Decimal `json:"amount"`
	Status            PaymentStatus   `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type CheckoutLineItem struct {
	Name       string
	UnitAmount int64 // minor currency units
	Quantity   int64
}

type CheckoutRequest struct {
	OrderID    string
	Currency   string
	LineItems  []CheckoutLineItem
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

const EventCheckoutSessionCompleted = "checkout.session.completed"

// PaymentEvent is a verified notification from the payment processor.
type PaymentEvent struct {
	ID          string
	Type        string
	SessionID   string
	OrderID     string
	AmountTotal int64 // minor currency units
}

// ConfirmResult reports what a payment confirmation changed.
type ConfirmResult struct {
	StatusChanged  bool
	PaymentCreated bool
	PreviousStatus OrderStatus
}
