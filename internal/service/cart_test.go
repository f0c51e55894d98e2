package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/repository"
	"github.com/dukerupert/volund/internal/session"
)

func seededProducts() *repository.MockProductRepository {
	products := repository.NewMockProductRepository()
	products.Products = []domain.Product{
		{
			ProductID:      301,
			StockProductID: 71,
			Name:           "Logo Tee",
			ThumbnailURL:   "https://cdn.example.com/thumb.png",
			Variants: []domain.Variant{
				{
					ID:            "var-s",
					Name:          "Logo Tee - S",
					InStock:       true,
					VariantID:     4011,
					SyncVariantID: 9001,
					Size:          "S",
					Color:         "Black",
					RetailPrice:   decimal.RequireFromString("19.99"),
					ImageURL:      "https://cdn.example.com/mockup-s.png",
				},
				{
					ID:            "var-m",
					Name:          "Logo Tee - M",
					InStock:       false,
					VariantID:     4012,
					SyncVariantID: 9002,
					Size:          "M",
					RetailPrice:   decimal.RequireFromString("19.99"),
				},
			},
		},
	}
	return products
}

func newTestCartService() (CartService, session.Store) {
	store := session.NewMemoryStore()
	return NewCartService(store, seededProducts(), nil), store
}

func TestCartService_Cart_MissingSessionReturnsEmptyCart(t *testing.T) {
	svc, _ := newTestCartService()

	cart, err := svc.Cart(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.ItemCount)
}

func TestCartService_AddVariant(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	cart, err := svc.AddVariant(ctx, "s1", "var-s", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Logo Tee", cart.Items[0].Title)
	assert.Equal(t, int64(9001), cart.Items[0].VariantID)
	assert.Equal(t, 2, cart.ItemCount)

	// Adding the same variant again merges into the existing line.
	cart, err = svc.AddVariant(ctx, "s1", "var-s", 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("99.95")))
}

func TestCartService_AddVariant_UnknownVariant(t *testing.T) {
	svc, _ := newTestCartService()

	_, err := svc.AddVariant(context.Background(), "s1", "nope", 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestCartService_AddVariant_OutOfStock(t *testing.T) {
	svc, _ := newTestCartService()

	_, err := svc.AddVariant(context.Background(), "s1", "var-m", 1)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestCartService_UpdateQuantities(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddVariant(ctx, "s1", "var-s", 2)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantities(ctx, "s1", []domain.QuantityUpdate{
		{ProductID: "var-s", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("79.96")))
}

func TestCartService_UpdateQuantities_ZeroRemovesLine(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddVariant(ctx, "s1", "var-s", 2)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantities(ctx, "s1", []domain.QuantityUpdate{
		{ProductID: "var-s", Quantity: 0},
	})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestCartService_UpdateQuantities_UnknownLine(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddVariant(ctx, "s1", "var-s", 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantities(ctx, "s1", []domain.QuantityUpdate{
		{ProductID: "not-in-cart", Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrItemNotInCart)
}

func TestCartService_UpdateQuantities_NegativeRejected(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddVariant(ctx, "s1", "var-s", 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantities(ctx, "s1", []domain.QuantityUpdate{
		{ProductID: "var-s", Quantity: -1},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_RemoveItem(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddVariant(ctx, "s1", "var-s", 1)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "s1", "var-s")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Removing an absent line is a no-op.
	cart, err = svc.RemoveItem(ctx, "s1", "var-s")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_Empty(t *testing.T) {
	svc, store := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddVariant(ctx, "s1", "var-s", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Empty(ctx, "s1"))

	_, err = store.Cart(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrCartNotFound)
}
