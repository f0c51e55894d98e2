package fulfillment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *PrintfulProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewPrintfulProvider(PrintfulConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return provider
}

func TestNewPrintfulProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewPrintfulProvider(PrintfulConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestEstimateCosts(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders/estimate-costs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 200,
			"result": {
				"costs": {"subtotal": "18.50", "shipping": "4.99", "tax": "1.87", "vat": "0.00"},
				"retail_costs": {"subtotal": 39.98}
			}
		}`))
	})

	recipient := Recipient{
		Name:        "Ada Lovelace",
		Address1:    "12 Analytical Way",
		City:        "Seattle",
		StateCode:   "WA",
		CountryCode: "US",
		Zip:         "98101",
	}
	items := []OrderItem{
		{SyncVariantID: 101, Quantity: 2, RetailPrice: "19.99", Currency: "USD"},
	}

	estimate, err := provider.EstimateCosts(context.Background(), recipient, items)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "4.99", estimate.Shipping.StringFixed(2))
	assert.Equal(t, "1.87", estimate.Tax.StringFixed(2))
	assert.Equal(t, "0.00", estimate.VAT.StringFixed(2))
	assert.Equal(t, "39.98", estimate.RetailSubtotal.StringFixed(2))

	// state_code must reach the wire when set
	wireRecipient := gotBody["recipient"].(map[string]any)
	assert.Equal(t, "WA", wireRecipient["state_code"])
}

func TestEstimateCosts_Validation(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := provider.EstimateCosts(context.Background(), Recipient{}, []OrderItem{{SyncVariantID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, ErrRecipientRequired)

	recipient := Recipient{Address1: "1 Main St", CountryCode: "US"}
	_, err = provider.EstimateCosts(context.Background(), recipient, nil)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestEstimateCosts_UpstreamError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": 400, "result": "Invalid recipient zip code"}`))
	})

	recipient := Recipient{Address1: "1 Main St", CountryCode: "US"}
	items := []OrderItem{{SyncVariantID: 1, Quantity: 1, RetailPrice: "5.00", Currency: "USD"}}

	_, err := provider.EstimateCosts(context.Background(), recipient, items)
	require.Error(t, err)

	var ferr *FulfillmentError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "upstream", ferr.ErrorCode())
	assert.Contains(t, ferr.ErrorMessage(), "Invalid recipient zip code")
}

func TestSubmitOrder(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		w.Write([]byte(`{
			"code": 200,
			"result": {
				"id": 5551212,
				"status": "pending",
				"dashboard_url": "https://www.printful.com/dashboard?order_id=5551212",
				"recipient": {"email": "ada@example.com"}
			}
		}`))
	})

	recipient := Recipient{
		Name:        "Ada Lovelace",
		Address1:    "12 Analytical Way",
		City:        "Seattle",
		CountryCode: "US",
		Zip:         "98101",
		Email:       "ada@example.com",
	}
	items := []OrderItem{{SyncVariantID: 101, Quantity: 1, RetailPrice: "19.99", Currency: "USD"}}

	order, err := provider.SubmitOrder(context.Background(), recipient, items)
	require.NoError(t, err)
	assert.Equal(t, int64(5551212), order.ID)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "ada@example.com", order.RecipientEmail)
}

func TestCountries(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/countries", r.URL.Path)
		w.Write([]byte(`{
			"code": 200,
			"result": [
				{"code": "US", "name": "United States", "states": [{"code": "WA", "name": "Washington"}]},
				{"code": "NL", "name": "Netherlands", "states": null}
			]
		}`))
	})

	countries, err := provider.Countries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)

	assert.Equal(t, "US", countries[0].Code)
	require.Len(t, countries[0].States, 1)
	assert.Equal(t, "WA", countries[0].States[0].Code)
	assert.Empty(t, countries[1].States)
}

func TestStoreProduct(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/store/products/301", r.URL.Path)
		w.Write([]byte(`{
			"code": 200,
			"result": {
				"sync_product": {"id": 301, "name": "Logo Tee", "thumbnail_url": "https://cdn.example.com/thumb.png"},
				"sync_variants": [
					{
						"id": 9001,
						"variant_id": 4011,
						"name": "Logo Tee - S",
						"retail_price": "19.99",
						"size": "S",
						"color": "Black",
						"files": [
							{"type": "default", "preview_url": "https://cdn.example.com/print.png"},
							{"type": "preview", "preview_url": "https://cdn.example.com/mockup-s.png"}
						],
						"product": {"product_id": 71}
					}
				]
			}
		}`))
	})

	product, err := provider.StoreProduct(context.Background(), 301)
	require.NoError(t, err)

	assert.Equal(t, int64(301), product.ID)
	assert.Equal(t, int64(71), product.StockProductID)
	require.Len(t, product.Variants, 1)

	v := product.Variants[0]
	assert.Equal(t, int64(9001), v.SyncVariantID)
	assert.Equal(t, int64(4011), v.VariantID)
	assert.Equal(t, "19.99", v.RetailPrice.StringFixed(2))
	assert.Equal(t, "https://cdn.example.com/mockup-s.png", v.PreviewURL)
}

func TestStoreProduct_NotFound(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code": 404, "result": "Product not found"}`))
	})

	_, err := provider.StoreProduct(context.Background(), 999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalogProduct(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/71", r.URL.Path)
		w.Write([]byte(`{
			"code": 200,
			"result": {
				"product": {"id": 71, "description": "Soft cotton tee"},
				"variants": [
					{"id": 4011, "availability_status": [{"status": "in_stock"}]},
					{"id": 4012, "availability_status": [{"status": "supplier_out_of_stock"}]}
				]
			}
		}`))
	})

	catalog, err := provider.CatalogProduct(context.Background(), 71)
	require.NoError(t, err)

	assert.True(t, catalog.InStock(4011))
	assert.False(t, catalog.InStock(4012))
	// Unknown variants are assumed purchasable
	assert.True(t, catalog.InStock(4099))
}

func TestRegisterStockWebhooks(t *testing.T) {
	var gotBody map[string]any

	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/webhooks", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"code": 200, "result": {}}`))
	})

	err := provider.RegisterStockWebhooks(context.Background(), "https://shop.example.com/webhooks/printful", []int64{71, 72})
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/webhooks/printful", gotBody["url"])
	types, ok := gotBody["types"].([]any)
	require.True(t, ok)
	assert.Contains(t, types, "stock_updated")
}
