package routes

import (
	"github.com/dukerupert/volund/internal/router"
)

// RegisterStorefrontRoutes registers the shopper-facing routes: catalog
// browsing, the session cart, and the checkout flow.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Catalog
	r.Get("/store/products", deps.ProductHandler.List)
	r.Get("/store/products/{id}", deps.ProductHandler.Detail)

	// Cart
	r.Get("/store/cart", deps.CartHandler.View)
	r.Post("/store/cart", deps.CartHandler.Add)
	r.Post("/store/cart/empty", deps.CartHandler.Empty)
	r.Patch("/store/cart/{id}", deps.CartHandler.Update)
	r.Delete("/store/cart/{id}", deps.CartHandler.Remove)

	// Checkout
	r.Get("/store/checkout", deps.CheckoutHandler.Show)
	r.Post("/store/checkout", deps.CheckoutHandler.Quote)
	r.Post("/store/checkout/confirm", deps.CheckoutHandler.Confirm)
	r.Get("/store/checkout/receipt", deps.CheckoutHandler.Receipt)

	// Country/state metadata for the checkout form
	r.Get("/store/countries", deps.CheckoutHandler.Countries)
}
