package fulfillment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider defines the interface for print-on-demand fulfillment operations.
// Implementations integrate with providers like Printful.
type Provider interface {
	// EstimateCosts returns a cost breakdown for shipping items to a recipient.
	EstimateCosts(ctx context.Context, recipient Recipient, items []OrderItem) (*CostEstimate, error)

	// SubmitOrder sends a paid order to the provider for production and shipping.
	SubmitOrder(ctx context.Context, recipient Recipient, items []OrderItem) (*SubmittedOrder, error)

	// Countries returns the provider's shipping destinations, including
	// state subdivisions for countries that require them.
	Countries(ctx context.Context) ([]Country, error)

	// ListStoreProducts returns the sync product IDs configured in the store.
	ListStoreProducts(ctx context.Context) ([]int64, error)

	// StoreProduct fetches a sync product and its variants.
	StoreProduct(ctx context.Context, syncProductID int64) (*StoreProduct, error)

	// CatalogProduct fetches catalog-level data for a stock product,
	// including per-variant availability.
	CatalogProduct(ctx context.Context, stockProductID int64) (*CatalogProduct, error)

	// RegisterStockWebhooks subscribes the given callback URL to stock
	// change notifications for the listed stock products.
	RegisterStockWebhooks(ctx context.Context, callbackURL string, stockProductIDs []int64) error
}

// Recipient is the shipping destination for an estimate or order.
type Recipient struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Email       string `json:"email,omitempty"`
}

// OrderItem is a single purchasable line in an estimate or order payload.
type OrderItem struct {
	SyncVariantID int64  `json:"sync_variant_id"`
	Quantity      int    `json:"quantity"`
	RetailPrice   string `json:"retail_price"`
	Currency      string `json:"currency"`
}

// CostEstimate is the provider's cost breakdown for a prospective order.
// Subtotal is the provider's wholesale subtotal; RetailSubtotal is the
// sum of the retail prices submitted with the items.
type CostEstimate struct {
	Subtotal       decimal.Decimal
	Shipping       decimal.Decimal
	Tax            decimal.Decimal
	VAT            decimal.Decimal
	RetailSubtotal decimal.Decimal
}

// SubmittedOrder describes an order accepted by the provider.
type SubmittedOrder struct {
	ID             int64
	Status         string
	DashboardURL   string
	RecipientEmail string
}

// Country is a shipping destination. States is non-empty for countries
// whose addresses require a state or province.
type Country struct {
	Code   string
	Name   string
	States []State
}

// State is a subdivision of a Country.
type State struct {
	Code string
	Name string
}

// StoreProduct is a sync product configured in the provider's store.
type StoreProduct struct {
	ID             int64
	Name           string
	ThumbnailURL   string
	StockProductID int64
	Variants       []StoreVariant
}

// StoreVariant is a purchasable configuration of a StoreProduct.
type StoreVariant struct {
	SyncVariantID int64
	VariantID     int64
	Name          string
	RetailPrice   decimal.Decimal
	Size          string
	Color         string
	PreviewURL    string
}

// CatalogProduct is catalog-level data about a stock product.
// Availability maps catalog variant IDs to the provider's stock status.
type CatalogProduct struct {
	ID           int64
	Description  string
	Availability map[int64]string
}

// StockStatusOut is the catalog availability status that marks a variant
// as not purchasable.
const StockStatusOut = "supplier_out_of_stock"

// InStock reports whether the catalog variant with the given ID is purchasable.
func (c *CatalogProduct) InStock(variantID int64) bool {
	status, ok := c.Availability[variantID]
	if !ok {
		return true
	}
	return status != StockStatusOut
}
