package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/volund/internal/fulfillment"
	"github.com/dukerupert/volund/internal/repository"
)

func newCatalogFixture(t *testing.T) (CatalogService, *repository.MockProductRepository, *fulfillment.MockProvider) {
	t.Helper()

	products := repository.NewMockProductRepository()
	provider := fulfillment.NewMockProvider()

	provider.ListStoreProductsFunc = func(ctx context.Context) ([]int64, error) {
		return []int64{301, 999}, nil
	}
	provider.StoreProductFunc = func(ctx context.Context, syncProductID int64) (*fulfillment.StoreProduct, error) {
		if syncProductID == 999 {
			return &fulfillment.StoreProduct{ID: 999, Name: "Retired Hoodie", StockProductID: 88}, nil
		}
		return &fulfillment.StoreProduct{
			ID:             301,
			Name:           "Logo Tee (Unisex)",
			ThumbnailURL:   "https://cdn.example.com/thumb.png",
			StockProductID: 71,
			Variants: []fulfillment.StoreVariant{
				{
					SyncVariantID: 9001,
					VariantID:     4011,
					Name:          "Logo Tee - S",
					RetailPrice:   decimal.RequireFromString("19.99"),
					Size:          "S",
					Color:         "Black",
					PreviewURL:    "https://cdn.example.com/mockup-s.png",
				},
				{
					SyncVariantID: 9002,
					VariantID:     4012,
					Name:          "Logo Tee - M",
					RetailPrice:   decimal.RequireFromString("24.99"),
					Size:          "M",
					Color:         "Black",
				},
			},
		}, nil
	}
	provider.CatalogProductFunc = func(ctx context.Context, stockProductID int64) (*fulfillment.CatalogProduct, error) {
		if stockProductID == 88 {
			// Discontinued at the catalog level.
			return nil, fulfillment.ErrProductNotFound
		}
		return &fulfillment.CatalogProduct{
			ID:          71,
			Description: "Soft cotton tee",
			Availability: map[int64]string{
				4011: "in_stock",
				4012: fulfillment.StockStatusOut,
			},
		}, nil
	}

	svc := NewCatalogService(products, provider, CatalogConfig{
		StockWebhookURL: "https://shop.example.com/webhooks/printful",
	}, nil)
	return svc, products, provider
}

func TestCatalogService_Resync(t *testing.T) {
	svc, products, provider := newCatalogFixture(t)
	ctx := context.Background()

	result, err := svc.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Products)
	assert.Equal(t, 2, result.Variants)
	assert.Equal(t, 1, result.Skipped)

	stored, err := products.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	product := stored[0]
	// Provider naming parenthetical is stripped for display.
	assert.Equal(t, "Logo Tee", product.Name)
	assert.Equal(t, int64(71), product.StockProductID)
	assert.Equal(t, "19.99", product.PriceRange)

	require.Len(t, product.Variants, 2)
	assert.True(t, product.Variants[0].InStock)
	assert.False(t, product.Variants[1].InStock)
	assert.NotEmpty(t, product.Variants[0].ID)
	assert.NotEqual(t, product.Variants[0].ID, product.Variants[1].ID)

	// Stock webhooks are re-registered for the synced stock products.
	assert.Contains(t, provider.CallLog, "RegisterStockWebhooks(https://shop.example.com/webhooks/printful, 1 products)")
}

func TestCatalogService_Resync_ReplacesPreviousCatalog(t *testing.T) {
	svc, products, provider := newCatalogFixture(t)
	ctx := context.Background()

	_, err := svc.Resync(ctx)
	require.NoError(t, err)

	// The second sync reports everything gone; the catalog follows.
	provider.ListStoreProductsFunc = func(ctx context.Context) ([]int64, error) {
		return nil, nil
	}

	result, err := svc.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Products)

	stored, err := products.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCatalogService_Product(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)
	ctx := context.Background()

	_, err := svc.Resync(ctx)
	require.NoError(t, err)

	product, err := svc.Product(ctx, 301)
	require.NoError(t, err)
	assert.Equal(t, "Logo Tee", product.Name)

	_, err = svc.Product(ctx, 12345)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
