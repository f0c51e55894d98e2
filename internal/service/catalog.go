package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/fulfillment"
	"github.com/dukerupert/volund/internal/repository"
)

// CatalogService keeps the local catalog in sync with the fulfillment
// provider's store. The catalog is derived data: a resync replaces it
// wholesale with whatever the provider currently reports.
type CatalogService interface {
	// List returns all catalog products.
	List(ctx context.Context) ([]domain.Product, error)

	// Product returns the catalog product with the given sync product ID.
	Product(ctx context.Context, productID int64) (*domain.Product, error)

	// Resync rebuilds the catalog from the provider's store and
	// re-registers stock webhooks for the resulting products.
	Resync(ctx context.Context) (*ResyncResult, error)
}

// ResyncResult summarizes a catalog resync.
type ResyncResult struct {
	Products int
	Variants int
	Skipped  int
}

// CatalogConfig contains configuration for the catalog service.
type CatalogConfig struct {
	// StockWebhookURL is the externally reachable URL the provider should
	// call on stock changes.
	StockWebhookURL string
}

type catalogService struct {
	products    repository.ProductRepository
	fulfillment fulfillment.Provider
	config      CatalogConfig
	logger      *slog.Logger
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(
	products repository.ProductRepository,
	fulfillmentProvider fulfillment.Provider,
	config CatalogConfig,
	logger *slog.Logger,
) CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogService{
		products:    products,
		fulfillment: fulfillmentProvider,
		config:      config,
		logger:      logger,
	}
}

func (s *catalogService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) Product(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.products.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *catalogService) Resync(ctx context.Context) (*ResyncResult, error) {
	syncIDs, err := s.fulfillment.ListStoreProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list store products: %w", err)
	}

	s.logger.Info("catalog resync started", "store_products", len(syncIDs))

	result := &ResyncResult{}
	products := make([]domain.Product, 0, len(syncIDs))
	stockIDs := make([]int64, 0, len(syncIDs))

	for _, syncID := range syncIDs {
		product, err := s.buildProduct(ctx, syncID)
		if err != nil {
			if errors.Is(err, fulfillment.ErrProductNotFound) {
				// A store product whose stock product is discontinued;
				// it should be removed from the provider's store.
				s.logger.Warn("skipping discontinued product",
					"sync_product_id", syncID,
				)
				result.Skipped++
				continue
			}
			return nil, err
		}

		products = append(products, *product)
		stockIDs = append(stockIDs, product.StockProductID)
		result.Products++
		result.Variants += len(product.Variants)
	}

	if err := s.products.ReplaceCatalog(ctx, products); err != nil {
		return nil, fmt.Errorf("failed to replace catalog: %w", err)
	}

	if s.config.StockWebhookURL != "" {
		if err := s.fulfillment.RegisterStockWebhooks(ctx, s.config.StockWebhookURL, stockIDs); err != nil {
			return nil, fmt.Errorf("failed to register stock webhooks: %w", err)
		}
	}

	s.logger.Info("catalog resync finished",
		"products", result.Products,
		"variants", result.Variants,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *catalogService) buildProduct(ctx context.Context, syncID int64) (*domain.Product, error) {
	store, err := s.fulfillment.StoreProduct(ctx, syncID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store product %d: %w", syncID, err)
	}

	catalog, err := s.fulfillment.CatalogProduct(ctx, store.StockProductID)
	if err != nil {
		if errors.Is(err, fulfillment.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load catalog product %d: %w", store.StockProductID, err)
	}

	product := &domain.Product{
		ProductID:      store.ID,
		StockProductID: store.StockProductID,
		Name:           displayName(store.Name),
		ThumbnailURL:   store.ThumbnailURL,
	}

	for _, sv := range store.Variants {
		product.Variants = append(product.Variants, domain.Variant{
			ID:            uuid.New().String(),
			Name:          sv.Name,
			InStock:       catalog.InStock(sv.VariantID),
			VariantID:     sv.VariantID,
			SyncVariantID: sv.SyncVariantID,
			Size:          sv.Size,
			Color:         sv.Color,
			RetailPrice:   sv.RetailPrice,
			ImageURL:      sv.PreviewURL,
		})
	}
	product.PriceRange = priceRange(product.Variants)

	return product, nil
}

// displayName strips the variant parenthetical the provider appends to
// store product names.
func displayName(name string) string {
	base, _, _ := strings.Cut(name, "(")
	return strings.TrimSpace(base)
}

// priceRange formats the min-max retail price across purchasable variants.
func priceRange(variants []domain.Variant) string {
	var min, max decimal.Decimal
	first := true
	for _, v := range variants {
		if !v.InStock {
			continue
		}
		if first {
			min, max = v.RetailPrice, v.RetailPrice
			first = false
			continue
		}
		if v.RetailPrice.LessThan(min) {
			min = v.RetailPrice
		}
		if v.RetailPrice.GreaterThan(max) {
			max = v.RetailPrice
		}
	}
	if first {
		return ""
	}
	if min.Equal(max) {
		return min.String()
	}
	return min.String() + " - " + max.String()
}
