package billing

import (
	"context"
	"time"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout session for a
	// confirmed order. The returned session URL is where the customer
	// completes payment.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// GetCheckoutSession retrieves an existing checkout session.
	// Used by the payment webhook to recover the order reference.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// MetadataOrderID is the checkout session metadata key carrying our order ID.
const MetadataOrderID = "orderId"

// CheckoutLineItem is a display line on the hosted payment page.
// Synthetic lines such as shipping and tax carry no image.
type CheckoutLineItem struct {
	// Name shown to the customer
	Name string

	// ImageURL is an optional product image
	ImageURL string

	// UnitAmountCents is the per-unit price in smallest currency unit
	UnitAmountCents int64

	// Quantity of this line item
	Quantity int64
}

// CreateCheckoutSessionParams contains parameters for creating a checkout session.
type CreateCheckoutSessionParams struct {
	// CustomerEmail prefills the email field on the payment page
	CustomerEmail string

	// Currency code (ISO 4217 lowercase) - e.g., "usd"
	Currency string

	// LineItems are the display lines, including synthetic shipping/tax lines
	LineItems []CheckoutLineItem

	// OrderID is our order identifier, stored in session metadata so the
	// payment webhook can find the order to fulfill
	OrderID string

	// SuccessURL is where the customer lands after paying
	SuccessURL string

	// CancelURL is where the customer lands after abandoning payment
	CancelURL string
}

// CheckoutSession represents a hosted checkout session.
type CheckoutSession struct {
	// ID is the provider's session ID (cs_...)
	ID string

	// URL is the hosted payment page
	URL string

	// Status: open, complete, expired
	Status string

	// CustomerEmail as entered or prefilled
	CustomerEmail string

	// OrderID recovered from session metadata
	OrderID string

	// AmountTotalCents is the session total in smallest currency unit
	AmountTotalCents int64

	// CreatedAt is when the session was created
	CreatedAt time.Time
}
