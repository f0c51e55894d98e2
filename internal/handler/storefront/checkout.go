package storefront

import (
	"net/http"
	"sort"

	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/fulfillment"
	"github.com/dukerupert/volund/internal/handler"
	"github.com/dukerupert/volund/internal/service"
)

// CheckoutHandler handles the quote, confirm, and receipt steps of checkout.
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	cartService     service.CartService
	fulfillment     fulfillment.Provider
	secure          bool
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(
	checkoutService service.CheckoutService,
	cartService service.CartService,
	fulfillmentProvider fulfillment.Provider,
	secure bool,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		cartService:     cartService,
		fulfillment:     fulfillmentProvider,
		secure:          secure,
	}
}

// Show handles GET /store/checkout
// It returns the cart the quote will be priced against.
func (h *CheckoutHandler) Show(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionIDFromCookie(r)
	if sessionID == "" {
		handler.JSON(w, http.StatusOK, domain.NewCart())
		return
	}

	cart, err := h.cartService.Cart(r.Context(), sessionID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, cart)
}

// Quote handles POST /store/checkout
// It validates the shipping address and returns the price breakdown.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("CheckoutHandler.Quote", "Invalid form data"))
		return
	}

	customer := domain.CustomerInfo{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
		Address1:  r.FormValue("address1"),
		Address2:  r.FormValue("address2"),
		City:      r.FormValue("city"),
		State:     r.FormValue("state"),
		Zip:       r.FormValue("zip"),
		Country:   r.FormValue("country"),
	}

	sessionID, err := EnsureSessionID(w, r, h.secure)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	prices, err := h.checkoutService.Quote(ctx, sessionID, customer)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, prices)
}

// Confirm handles POST /store/checkout/confirm
// On success the shopper is redirected to the hosted payment page.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionIDFromCookie(r)
	confirmation, err := h.checkoutService.Confirm(r.Context(), sessionID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	http.Redirect(w, r, confirmation.PaymentURL, http.StatusSeeOther)
}

// Receipt handles GET /store/checkout/receipt?order_id={id}
func (h *CheckoutHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		handler.ErrorResponse(w, r, domain.Invalid("CheckoutHandler.Receipt", "order_id is required"))
		return
	}

	sessionID := GetSessionIDFromCookie(r)
	view, err := h.checkoutService.Receipt(r.Context(), sessionID, orderID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, receiptResponse{
		OrderID:   view.Order.ID,
		Fulfilled: view.Order.Fulfilled,
		Items:     view.Order.Items,
		Prices:    view.Order.Customer.Prices,
		Email:     view.Order.Customer.Email,
	})
}

type receiptResponse struct {
	OrderID   string                 `json:"order_id"`
	Fulfilled bool                   `json:"fulfilled"`
	Items     []domain.LineItem      `json:"items"`
	Prices    *domain.PriceBreakdown `json:"prices,omitempty"`
	Email     string                 `json:"email"`
}

// Countries handles GET /store/countries
// Countries are sorted alphabetically with the US first, matching the order
// the checkout form presents them in.
func (h *CheckoutHandler) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.fulfillment.Countries(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	sort.Slice(countries, func(i, j int) bool {
		if countries[i].Code == "US" {
			return true
		}
		if countries[j].Code == "US" {
			return false
		}
		return countries[i].Name < countries[j].Name
	})
	handler.JSON(w, http.StatusOK, countries)
}
