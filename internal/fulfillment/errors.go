package fulfillment

import "fmt"

// Error codes mirror the domain error codes to avoid a circular import.
// The handler layer maps these to HTTP status codes.
const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
	codeNotFound = "not_found"
	codeUpstream = "upstream"
)

// FulfillmentError represents a fulfillment-specific error with a code and
// message. It implements the domain error interface pattern for consistent
// HTTP status mapping.
type FulfillmentError struct {
	Code    string
	Message string
}

func (e *FulfillmentError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *FulfillmentError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *FulfillmentError) ErrorMessage() string {
	return e.Message
}

func newFulfillmentError(code, message string) *FulfillmentError {
	return &FulfillmentError{Code: code, Message: message}
}

var (
	// ErrMissingAPIKey is returned when the provider API key is missing.
	ErrMissingAPIKey = newFulfillmentError(codeInternal, "Fulfillment provider API key is required")

	// ErrNoItems is returned when an estimate or order has no items.
	ErrNoItems = newFulfillmentError(codeInvalid, "At least one item is required")

	// ErrRecipientRequired is returned when the recipient address is incomplete.
	ErrRecipientRequired = newFulfillmentError(codeInvalid, "Recipient address is required")

	// ErrProductNotFound is returned when the provider has no such product.
	ErrProductNotFound = newFulfillmentError(codeNotFound, "Product not found at fulfillment provider")
)

// ErrUpstream creates an error for a failed provider API call.
func ErrUpstream(status int, message string) error {
	return &FulfillmentError{
		Code:    codeUpstream,
		Message: fmt.Sprintf("Fulfillment provider error (%d): %s", status, message),
	}
}
