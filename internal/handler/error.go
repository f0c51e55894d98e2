package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/middleware"
)

// ErrorCodeToHTTPStatus maps a domain error code to an HTTP status code.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUPSTREAM:
		return http.StatusBadGateway
	case domain.EINTERNAL:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// codedError is implemented by provider packages (billing, fulfillment) that
// carry their own error codes to avoid importing domain.
type codedError interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

// errorParts resolves any error into a code and a user-safe message.
func errorParts(err error) (string, string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return domain.EINVALID, ve.Error()
	}

	var ce codedError
	if errors.As(err, &ce) {
		code := ce.ErrorCode()
		if code == domain.EINTERNAL {
			return code, "An internal error occurred. Please try again later."
		}
		return code, ce.ErrorMessage()
	}

	return domain.ErrorCode(err), domain.ErrorMessage(err)
}

// ErrorResponse writes an error to the client, negotiating JSON or plain
// text from the Accept header. Internal errors are logged with their full
// chain and surfaced with a generic message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code, message := errorParts(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"op", domain.ErrorOp(err),
			"error", err,
		)
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		body := map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		}
		if fields := domain.GetValidationFields(err); fields != nil {
			body["error"].(map[string]any)["fields"] = fields
		}
		if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
			logger.Error("failed to encode error response", "error", encodeErr)
		}
		return
	}

	http.Error(w, message, status)
}

// wantsJSON reports whether the client prefers a JSON error body.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "application/json") || strings.Contains(accept, "*/*")
}
