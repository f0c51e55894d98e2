package routes

import (
	"github.com/dukerupert/volund/internal/handler/storefront"
	"github.com/dukerupert/volund/internal/handler/webhook"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	ProductHandler  *storefront.ProductHandler
	CartHandler     *storefront.CartHandler
	CheckoutHandler *storefront.CheckoutHandler
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler   *webhook.StripeHandler
	PrintfulHandler *webhook.PrintfulHandler
}
