package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/volund/internal/billing"
	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/fulfillment"
	"github.com/dukerupert/volund/internal/repository"
	"github.com/dukerupert/volund/internal/session"
	"github.com/dukerupert/volund/internal/telemetry"
)

// CheckoutService orchestrates the checkout flow: quoting shipping and tax
// for a destination, confirming the order, and rendering the receipt.
type CheckoutService interface {
	// Quote validates the customer's address, fetches a shipping and tax
	// estimate for the session's cart, and stores both in the session for
	// the confirmation step.
	Quote(ctx context.Context, sessionID string, customer domain.CustomerInfo) (*domain.PriceBreakdown, error)

	// Confirm freezes the cart into an unfulfilled order and creates a
	// hosted payment session for it. The order only becomes fulfilled
	// through the payment webhook.
	Confirm(ctx context.Context, sessionID string) (*Confirmation, error)

	// Receipt loads an order for the post-payment receipt page. When the
	// order has been fulfilled, the session's cart is cleared.
	Receipt(ctx context.Context, sessionID, orderID string) (*ReceiptView, error)
}

// Confirmation is the result of a confirmed checkout.
type Confirmation struct {
	Order      *domain.Order
	PaymentURL string
}

// ReceiptView is the order state shown on the receipt page.
type ReceiptView struct {
	Order       *domain.Order
	CartCleared bool
}

// CheckoutConfig contains configuration for the checkout service.
type CheckoutConfig struct {
	// PublicURL is the externally reachable base URL, used for payment
	// redirect targets
	PublicURL string

	// Currency code (ISO 4217 lowercase) - e.g., "usd"
	Currency string
}

type checkoutService struct {
	store       session.Store
	orders      repository.OrderRepository
	fulfillment fulfillment.Provider
	billing     billing.Provider
	config      CheckoutConfig
	logger      *slog.Logger
}

// NewCheckoutService creates a new CheckoutService instance.
func NewCheckoutService(
	store session.Store,
	orders repository.OrderRepository,
	fulfillmentProvider fulfillment.Provider,
	billingProvider billing.Provider,
	config CheckoutConfig,
	logger *slog.Logger,
) CheckoutService {
	if config.Currency == "" {
		config.Currency = "usd"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &checkoutService{
		store:       store,
		orders:      orders,
		fulfillment: fulfillmentProvider,
		billing:     billingProvider,
		config:      config,
		logger:      logger,
	}
}

func (s *checkoutService) Quote(ctx context.Context, sessionID string, customer domain.CustomerInfo) (*domain.PriceBreakdown, error) {
	if customer.Country == "" {
		return nil, ErrCountryRequired
	}

	cart, err := s.sessionCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.checkStateRequirement(ctx, customer); err != nil {
		return nil, err
	}

	estimate, err := s.fulfillment.EstimateCosts(ctx, recipientFor(customer), orderItemsFor(cart.Items))
	if err != nil {
		return nil, fmt.Errorf("failed to estimate costs: %w", err)
	}

	// The customer pays retail subtotal plus the provider's shipping and
	// tax. VAT is carried for display but already included by the provider
	// where it applies.
	prices := &domain.PriceBreakdown{
		Subtotal: estimate.RetailSubtotal,
		Shipping: estimate.Shipping,
		Tax:      estimate.Tax,
		VAT:      estimate.VAT,
		Total:    estimate.RetailSubtotal.Add(estimate.Shipping).Add(estimate.Tax).Round(2),
	}

	customer.Prices = prices
	if err := s.store.SaveCustomer(ctx, sessionID, &customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	s.logger.Info("checkout quoted",
		"country", customer.Country,
		"total", prices.Total.String(),
	)
	if telemetry.Business != nil {
		telemetry.Business.CheckoutQuoted.Inc()
	}
	return prices, nil
}

func (s *checkoutService) Confirm(ctx context.Context, sessionID string) (*Confirmation, error) {
	customer, err := s.store.Customer(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrCustomerNotFound) {
			return nil, ErrCheckoutExpired
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer.Prices == nil {
		return nil, ErrCheckoutExpired
	}

	cart, err := s.sessionCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.checkStateRequirement(ctx, *customer); err != nil {
		return nil, err
	}

	// Freeze the cart and customer into an order before payment. The
	// fulfilled flag stays false until the payment webhook flips it.
	order := &domain.Order{
		Items:     cart.Items,
		Customer:  *customer,
		Fulfilled: false,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	lineItems := make([]billing.CheckoutLineItem, 0, len(cart.Items)+2)
	for _, item := range cart.Items {
		lineItems = append(lineItems, billing.CheckoutLineItem{
			Name:            item.Title,
			ImageURL:        item.ImageURL,
			UnitAmountCents: toCents(item.UnitPrice),
			Quantity:        int64(item.Quantity),
		})
	}
	lineItems = append(lineItems, billing.CheckoutLineItem{
		Name:            "Shipping",
		UnitAmountCents: toCents(customer.Prices.Shipping),
		Quantity:        1,
	})
	if customer.Prices.Tax.IsPositive() {
		lineItems = append(lineItems, billing.CheckoutLineItem{
			Name:            "Tax",
			UnitAmountCents: toCents(customer.Prices.Tax),
			Quantity:        1,
		})
	}

	sess, err := s.billing.CreateCheckoutSession(ctx, billing.CreateCheckoutSessionParams{
		CustomerEmail: customer.Email,
		Currency:      s.config.Currency,
		LineItems:     lineItems,
		OrderID:       order.ID,
		SuccessURL:    s.config.PublicURL + "/store/checkout/receipt?order_id=" + order.ID,
		CancelURL:     s.config.PublicURL + "/store/checkout",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment session: %w", err)
	}

	if err := s.orders.SetPaymentSession(ctx, order.ID, sess.ID); err != nil {
		return nil, fmt.Errorf("failed to record payment session: %w", err)
	}
	order.PaymentSessionID = sess.ID

	s.logger.Info("checkout confirmed",
		"order_id", order.ID,
		"payment_session_id", sess.ID,
		"amount_cents", sess.AmountTotalCents,
	)
	if telemetry.Business != nil {
		telemetry.Business.CheckoutConfirmed.Inc()
	}
	return &Confirmation{Order: order, PaymentURL: sess.URL}, nil
}

func (s *checkoutService) Receipt(ctx context.Context, sessionID, orderID string) (*ReceiptView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	view := &ReceiptView{Order: order}
	if order.Fulfilled {
		if err := s.store.ClearCart(ctx, sessionID); err != nil {
			// The receipt is still valid; the stale cart expires with
			// the session.
			s.logger.Warn("failed to clear cart after fulfillment",
				"order_id", orderID,
				"error", err,
			)
		} else {
			view.CartCleared = true
		}
	}
	return view, nil
}

// sessionCart loads the session's cart and rejects empty ones.
func (s *checkoutService) sessionCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.store.Cart(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}
	return cart, nil
}

// checkStateRequirement rejects destinations whose country subdivides into
// states when the customer left the state field blank.
func (s *checkoutService) checkStateRequirement(ctx context.Context, customer domain.CustomerInfo) error {
	countries, err := s.fulfillment.Countries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load countries: %w", err)
	}

	for _, country := range countries {
		if strings.EqualFold(country.Code, customer.Country) {
			if len(country.States) > 0 && customer.State == "" {
				return ErrStateRequired
			}
			return nil
		}
	}
	return nil
}

// recipientFor maps checkout form data to a fulfillment recipient.
func recipientFor(customer domain.CustomerInfo) fulfillment.Recipient {
	return fulfillment.Recipient{
		Name:        customer.FullName(),
		Address1:    customer.Address1,
		Address2:    customer.Address2,
		City:        customer.City,
		StateCode:   customer.State,
		CountryCode: customer.Country,
		Zip:         customer.Zip,
		Email:       customer.Email,
	}
}

// orderItemsFor maps cart lines to the fulfillment order payload.
func orderItemsFor(items []domain.LineItem) []fulfillment.OrderItem {
	out := make([]fulfillment.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, fulfillment.OrderItem{
			SyncVariantID: item.VariantID,
			Quantity:      item.Quantity,
			RetailPrice:   item.UnitPrice.StringFixed(2),
			Currency:      "USD",
		})
	}
	return out
}

// toCents converts a decimal amount to the smallest currency unit.
func toCents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
