package storefront

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/handler"
	"github.com/dukerupert/volund/internal/service"
)

// CartHandler handles all cart-related storefront routes.
type CartHandler struct {
	cartService service.CartService
	secure      bool
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cartService service.CartService, secure bool) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		secure:      secure,
	}
}

// View handles GET /store/cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := GetSessionIDFromCookie(r)
	if sessionID == "" {
		// No session yet means no cart yet; don't mint a session for a read.
		handler.JSON(w, http.StatusOK, domain.NewCart())
		return
	}

	cart, err := h.cartService.Cart(ctx, sessionID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, cart)
}

// Add handles POST /store/cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("CartHandler.Add", "Invalid form data"))
		return
	}

	variantID := r.FormValue("variant_id")
	if variantID == "" {
		handler.ErrorResponse(w, r, domain.Invalid("CartHandler.Add", "variant_id is required"))
		return
	}
	quantity := domain.ParseQuantity(r.FormValue("quantity"))

	sessionID, err := EnsureSessionID(w, r, h.secure)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.cartService.AddVariant(ctx, sessionID, variantID, quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, cart)
}

// Update handles PATCH /store/cart/{id}
// A quantity of zero removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("CartHandler.Update", "Invalid form data"))
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("CartHandler.Update", "Invalid quantity"))
		return
	}

	sessionID := GetSessionIDFromCookie(r)
	cart, err := h.cartService.UpdateQuantities(ctx, sessionID, []domain.QuantityUpdate{
		{ProductID: productID, Quantity: quantity},
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, cart)
}

// Remove handles DELETE /store/cart/{id}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := GetSessionIDFromCookie(r)
	cart, err := h.cartService.RemoveItem(ctx, sessionID, r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, cart)
}

// Empty handles POST /store/cart/empty
func (h *CartHandler) Empty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := GetSessionIDFromCookie(r)
	if sessionID != "" {
		if err := h.cartService.Empty(ctx, sessionID); err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
	}
	handler.JSON(w, http.StatusOK, domain.NewCart())
}
