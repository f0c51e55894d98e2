package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements the Provider interface using the Stripe API.
type StripeProvider struct {
	logger *slog.Logger
}

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	APIKey string
	Logger *slog.Logger // Optional: defaults to slog.Default()
}

// NewStripeProvider creates a new Stripe billing provider.
// Sets the package-level API key used by the Stripe SDK.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrInvalidAPIKey
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stripe.Key = cfg.APIKey

	return &StripeProvider{logger: logger}, nil
}

// CreateCheckoutSession creates a hosted Stripe Checkout session for an order.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	if len(params.LineItems) == 0 {
		return nil, ErrNoLineItems
	}
	if params.OrderID == "" {
		return nil, ErrMissingOrderID
	}

	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}

	logger := p.logger.With(
		"order_id", params.OrderID,
		"line_count", len(params.LineItems),
	)
	logger.Info("creating checkout session")

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmountCents),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	checkoutParams := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SubmitType:         stripe.String(string(stripe.CheckoutSessionSubmitTypePay)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
	}
	if params.CustomerEmail != "" {
		checkoutParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	checkoutParams.AddMetadata(MetadataOrderID, params.OrderID)
	checkoutParams.Context = ctx

	sess, err := session.New(checkoutParams)
	if err != nil {
		logger.Error("checkout session creation failed", "error", err)
		return nil, wrapStripeError(err)
	}

	logger.Info("checkout session created", "session_id", sess.ID)
	return fromStripeSession(sess), nil
}

// GetCheckoutSession retrieves an existing checkout session.
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx

	sess, err := session.Get(sessionID, getParams)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, ErrSessionNotFound
		}
		return nil, wrapStripeError(err)
	}

	return fromStripeSession(sess), nil
}

// VerifyWebhookSignature verifies a Stripe webhook signature.
func (p *StripeProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	_, err := webhook.ConstructEvent(payload, signature, secret)
	if err != nil {
		return ErrInvalidWebhookSignature
	}
	return nil
}

// fromStripeSession converts a Stripe checkout session to our type.
func fromStripeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:               sess.ID,
		URL:              sess.URL,
		Status:           string(sess.Status),
		CustomerEmail:    sess.CustomerEmail,
		AmountTotalCents: sess.AmountTotal,
		CreatedAt:        time.Unix(sess.Created, 0),
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		out.CustomerEmail = sess.CustomerDetails.Email
	}
	if sess.Metadata != nil {
		out.OrderID = sess.Metadata[MetadataOrderID]
	}
	return out
}

// wrapStripeError converts a Stripe SDK error into a StripeError.
func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &StripeError{
			Message:       stripeErr.Msg,
			Code:          string(stripeErr.Code),
			RequestID:     stripeErr.RequestID,
			OriginalError: err,
		}
	}
	return &StripeError{
		Message:       err.Error(),
		OriginalError: err,
	}
}
