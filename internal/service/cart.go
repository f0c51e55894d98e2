package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/repository"
	"github.com/dukerupert/volund/internal/session"
	"github.com/dukerupert/volund/internal/telemetry"
)

// CartService provides business logic for shopping cart operations.
// Carts are scoped to a session ID and persisted through the session store.
type CartService interface {
	// Cart returns the session's cart, or a fresh empty cart when none exists.
	Cart(ctx context.Context, sessionID string) (*domain.Cart, error)

	// AddVariant adds a catalog variant to the cart. Quantities below one
	// are coerced to one; adding a variant already in the cart increases
	// its quantity instead of creating a second line.
	AddVariant(ctx context.Context, sessionID, variantID string, quantity int) (*domain.Cart, error)

	// UpdateQuantities applies explicit per-line quantity changes.
	// A zero quantity removes the line.
	UpdateQuantities(ctx context.Context, sessionID string, updates []domain.QuantityUpdate) (*domain.Cart, error)

	// RemoveItem removes a line from the cart. Removing an absent line
	// is not an error.
	RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error)

	// Empty discards the session's cart.
	Empty(ctx context.Context, sessionID string) error
}

type cartService struct {
	store    session.Store
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCartService creates a new CartService instance.
func NewCartService(store session.Store, products repository.ProductRepository, logger *slog.Logger) CartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &cartService{
		store:    store,
		products: products,
		logger:   logger,
	}
}

func (s *cartService) Cart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.store.Cart(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrCartNotFound) {
			return domain.NewCart(), nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) AddVariant(ctx context.Context, sessionID, variantID string, quantity int) (*domain.Cart, error) {
	product, variant, err := s.products.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, repository.ErrVariantNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to find variant: %w", err)
	}
	if !variant.InStock {
		return nil, ErrOutOfStock
	}

	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.AddItem(variant.LineItem(product.Name), quantity)

	if err := s.store.SaveCart(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Info("item added to cart",
		"variant_id", variantID,
		"quantity", quantity,
		"item_count", cart.ItemCount,
	)
	if telemetry.Business != nil {
		telemetry.Business.CartItemsAdded.WithLabelValues(variantID).Inc()
	}
	return cart, nil
}

func (s *cartService) UpdateQuantities(ctx context.Context, sessionID string, updates []domain.QuantityUpdate) (*domain.Cart, error) {
	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var removals []string
	var changes []domain.QuantityUpdate
	for _, update := range updates {
		if !cart.Contains(update.ProductID) {
			return nil, ErrItemNotInCart
		}
		if update.Quantity == 0 {
			removals = append(removals, update.ProductID)
			continue
		}
		if update.Quantity < 0 {
			return nil, ErrInvalidQuantity
		}
		changes = append(changes, update)
	}

	cart.UpdateQuantities(changes, false)
	for _, productID := range removals {
		cart.RemoveItem(productID)
	}

	if err := s.store.SaveCart(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.RemoveItem(productID)

	if err := s.store.SaveCart(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) Empty(ctx context.Context, sessionID string) error {
	if err := s.store.ClearCart(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
