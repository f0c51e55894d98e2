package routes

import (
	"github.com/dukerupert/volund/internal/router"
)

// RegisterWebhookRoutes registers all webhook routes.
// These routes handle incoming webhooks from external services.
//
// Note: Webhook routes do NOT have authentication middleware.
// Each webhook handler is responsible for verifying the request
// signature (Stripe signature header, Printful HMAC).
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Post("/webhooks/stripe", deps.StripeHandler.HandleWebhook)
	r.Post("/webhooks/printful", deps.PrintfulHandler.HandleWebhook)
}
