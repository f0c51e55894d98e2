// Package session persists the session-scoped cart and checkout state.
//
// A cart is exclusively owned by one session. Nothing here serializes
// concurrent requests for the same session: last write wins at the store,
// which is the accepted behavior for a browser session.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/volund/internal/domain"
)

var (
	ErrCartNotFound     = errors.New("cart not found in session")
	ErrCustomerNotFound = errors.New("customer not found in session")
)

// TTL is how long session state survives without activity. Every write
// refreshes it.
const TTL = 30 * 24 * time.Hour

// Store reads and writes session-held state. The cart snapshot shape is the
// serialized domain.Cart: {items, itemCount, totalAmount}.
type Store interface {
	// Cart returns the session's cart snapshot.
	// Returns ErrCartNotFound when the session has no cart yet.
	Cart(ctx context.Context, sessionID string) (*domain.Cart, error)

	// SaveCart writes the cart snapshot for the session.
	SaveCart(ctx context.Context, sessionID string, cart *domain.Cart) error

	// ClearCart removes the session's cart.
	ClearCart(ctx context.Context, sessionID string) error

	// Customer returns the checkout customer info held for the session.
	// Returns ErrCustomerNotFound when none has been stored.
	Customer(ctx context.Context, sessionID string) (*domain.CustomerInfo, error)

	// SaveCustomer writes the checkout customer info for the session.
	SaveCustomer(ctx context.Context, sessionID string, customer *domain.CustomerInfo) error

	// ClearCustomer removes the session's customer info.
	ClearCustomer(ctx context.Context, sessionID string) error
}

// GenerateID generates a cryptographically secure session ID.
// Uses 32 bytes of random data encoded as a base64 URL-safe string.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}
