package fulfillment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// MockProvider is a mock fulfillment provider for testing.
// Simulates estimate and order flows without calling the Printful API.
type MockProvider struct {
	// EstimateCostsFunc allows customizing cost estimation behavior
	EstimateCostsFunc func(ctx context.Context, recipient Recipient, items []OrderItem) (*CostEstimate, error)

	// SubmitOrderFunc allows customizing order submission behavior
	SubmitOrderFunc func(ctx context.Context, recipient Recipient, items []OrderItem) (*SubmittedOrder, error)

	// CountriesFunc allows customizing the destination list
	CountriesFunc func(ctx context.Context) ([]Country, error)

	// ListStoreProductsFunc allows customizing the store product list
	ListStoreProductsFunc func(ctx context.Context) ([]int64, error)

	// StoreProductFunc allows customizing sync product lookups
	StoreProductFunc func(ctx context.Context, syncProductID int64) (*StoreProduct, error)

	// CatalogProductFunc allows customizing catalog lookups
	CatalogProductFunc func(ctx context.Context, stockProductID int64) (*CatalogProduct, error)

	// RegisterStockWebhooksFunc allows customizing webhook registration behavior
	RegisterStockWebhooksFunc func(ctx context.Context, callbackURL string, stockProductIDs []int64) error

	// SubmittedOrders stores orders submitted through the mock
	SubmittedOrders []SubmittedOrder

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock fulfillment provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		CallLog: []string{},
	}
}

// EstimateCosts returns a mock cost estimate.
func (m *MockProvider) EstimateCosts(ctx context.Context, recipient Recipient, items []OrderItem) (*CostEstimate, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("EstimateCosts(%s, %d items)", recipient.CountryCode, len(items)))

	if m.EstimateCostsFunc != nil {
		return m.EstimateCostsFunc(ctx, recipient, items)
	}

	// Default mock behavior: flat shipping, no tax, retail subtotal from items
	retail := decimal.Zero
	for _, item := range items {
		price, err := decimal.NewFromString(item.RetailPrice)
		if err != nil {
			return nil, ErrUpstream(0, "invalid retail price in mock item")
		}
		retail = retail.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return &CostEstimate{
		Subtotal:       retail,
		Shipping:       decimal.RequireFromString("4.99"),
		Tax:            decimal.Zero,
		VAT:            decimal.Zero,
		RetailSubtotal: retail,
	}, nil
}

// SubmitOrder records a mock order submission.
func (m *MockProvider) SubmitOrder(ctx context.Context, recipient Recipient, items []OrderItem) (*SubmittedOrder, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("SubmitOrder(%s, %d items)", recipient.CountryCode, len(items)))

	if m.SubmitOrderFunc != nil {
		return m.SubmitOrderFunc(ctx, recipient, items)
	}

	order := SubmittedOrder{
		ID:             int64(len(m.SubmittedOrders) + 1),
		Status:         "pending",
		DashboardURL:   "https://example.com/dashboard",
		RecipientEmail: recipient.Email,
	}
	m.SubmittedOrders = append(m.SubmittedOrders, order)
	return &order, nil
}

// Countries returns a mock destination list.
func (m *MockProvider) Countries(ctx context.Context) ([]Country, error) {
	m.CallLog = append(m.CallLog, "Countries")

	if m.CountriesFunc != nil {
		return m.CountriesFunc(ctx)
	}

	return []Country{
		{
			Code: "US",
			Name: "United States",
			States: []State{
				{Code: "CA", Name: "California"},
				{Code: "WA", Name: "Washington"},
			},
		},
		{Code: "NL", Name: "Netherlands"},
	}, nil
}

// ListStoreProducts returns a mock store product list.
func (m *MockProvider) ListStoreProducts(ctx context.Context) ([]int64, error) {
	m.CallLog = append(m.CallLog, "ListStoreProducts")

	if m.ListStoreProductsFunc != nil {
		return m.ListStoreProductsFunc(ctx)
	}
	return []int64{}, nil
}

// StoreProduct returns a mock sync product.
func (m *MockProvider) StoreProduct(ctx context.Context, syncProductID int64) (*StoreProduct, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("StoreProduct(%d)", syncProductID))

	if m.StoreProductFunc != nil {
		return m.StoreProductFunc(ctx, syncProductID)
	}
	return nil, ErrProductNotFound
}

// CatalogProduct returns a mock catalog product.
func (m *MockProvider) CatalogProduct(ctx context.Context, stockProductID int64) (*CatalogProduct, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CatalogProduct(%d)", stockProductID))

	if m.CatalogProductFunc != nil {
		return m.CatalogProductFunc(ctx, stockProductID)
	}
	return nil, ErrProductNotFound
}

// RegisterStockWebhooks records a mock webhook registration.
func (m *MockProvider) RegisterStockWebhooks(ctx context.Context, callbackURL string, stockProductIDs []int64) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("RegisterStockWebhooks(%s, %d products)", callbackURL, len(stockProductIDs)))

	if m.RegisterStockWebhooksFunc != nil {
		return m.RegisterStockWebhooksFunc(ctx, callbackURL, stockProductIDs)
	}
	return nil
}
