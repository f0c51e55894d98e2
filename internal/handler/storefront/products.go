package storefront

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/handler"
	"github.com/dukerupert/volund/internal/service"
)

// ProductHandler serves the synced catalog.
type ProductHandler struct {
	catalogService service.CatalogService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(catalogService service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// List handles GET /store/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.List(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, products)
}

// Detail handles GET /store/products/{id}
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("ProductHandler.Detail", "Invalid product id"))
		return
	}

	product, err := h.catalogService.Product(r.Context(), productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, product)
}
