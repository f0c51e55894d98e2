package service

import (
	"github.com/dukerupert/volund/internal/domain"
)

// Catalog errors - use domain.ENOTFOUND
var (
	ErrProductNotFound = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrVariantNotFound = domain.Errorf(domain.ENOTFOUND, "", "Product variant not found")
	ErrItemNotInCart   = domain.Errorf(domain.ENOTFOUND, "", "Item not in cart")
)

// Validation errors - use domain.EINVALID
var (
	ErrInvalidQuantity = domain.Errorf(domain.EINVALID, "", "Quantity must be greater than 0")
	ErrCountryRequired = domain.Errorf(domain.EINVALID, "", "Country is required. Please select a country.")
	ErrStateRequired   = domain.Errorf(domain.EINVALID, "", "State/Province is required for the selected country.")
	ErrEmptyCart       = domain.Errorf(domain.EINVALID, "", "Cart is empty")
	ErrCheckoutExpired = domain.Errorf(domain.EINVALID, "", "Checkout expired, please start again")
)

// Order-related errors
var (
	ErrOrderNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Order not found")
	ErrOutOfStock     = domain.Errorf(domain.ECONFLICT, "", "Item is out of stock")
	ErrMissingOrderID = domain.Errorf(domain.EINVALID, "", "Order ID missing from payment metadata")
)
