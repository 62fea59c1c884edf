package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)

	// ParseWebhook verifies the signature header over payload and decodes the
	// event. Returns an error wrapping domain.ErrSignatureInvalid on failure.
	ParseWebhook(payload []byte, signatureHeader string) (*domain.PaymentEvent, error)
}
