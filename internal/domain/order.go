package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerInfo is the checkout form data held in the session between
// checkout-start and payment confirmation. It is only persisted as part of
// an Order snapshot at confirmation time.
type CustomerInfo struct {
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Address1  string          `json:"address_1"`
	Address2  string          `json:"address_2,omitempty"`
	City      string          `json:"city"`
	State     string          `json:"state,omitempty"`
	Zip       string          `json:"zip"`
	Country   string          `json:"country"`
	Prices    *PriceBreakdown `json:"prices,omitempty"`
}

// FullName joins first and last name for fulfillment recipients.
func (c CustomerInfo) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// PriceBreakdown is the shipping/tax estimate for a destination and cart.
type PriceBreakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	VAT      decimal.Decimal `json:"vat"`
	Total    decimal.Decimal `json:"total"`
}

// Order is an immutable-after-creation record of a confirmed purchase.
// Items and Customer are frozen snapshots taken at confirmation time; later
// cart mutations never affect them. Fulfilled transitions false to true
// exactly once, only through the fulfillment reconciler.
type Order struct {
	ID               string
	Items            []LineItem
	Customer         CustomerInfo
	Fulfilled        bool
	PaymentSessionID string
	CreatedAt        time.Time
}
