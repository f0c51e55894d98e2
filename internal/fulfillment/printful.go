package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://api.printful.com"
	clientTimeout  = 30 * time.Second
)

// PrintfulProvider implements the Provider interface using the Printful API.
type PrintfulProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// PrintfulConfig contains configuration for the Printful provider.
type PrintfulConfig struct {
	APIKey  string
	BaseURL string       // Optional: defaults to the public API
	Client  *http.Client // Optional: defaults to a client with a 30s timeout
	Logger  *slog.Logger // Optional: defaults to slog.Default()
}

// NewPrintfulProvider creates a new Printful fulfillment provider.
func NewPrintfulProvider(cfg PrintfulConfig) (*PrintfulProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: clientTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PrintfulProvider{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  client,
		logger:  logger,
	}, nil
}

// money decodes a Printful monetary value, which the API returns as either
// a JSON number or a decimal string depending on the endpoint.
type money struct {
	decimal.Decimal
}

func (m *money) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			m.Decimal = decimal.Zero
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		m.Decimal = d
		return nil
	}
	return m.Decimal.UnmarshalJSON(data)
}

// EstimateCosts returns a cost breakdown for shipping items to a recipient.
func (p *PrintfulProvider) EstimateCosts(ctx context.Context, recipient Recipient, items []OrderItem) (*CostEstimate, error) {
	if recipient.Address1 == "" || recipient.CountryCode == "" {
		return nil, ErrRecipientRequired
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	logger := p.logger.With(
		"country", recipient.CountryCode,
		"item_count", len(items),
	)
	logger.Info("estimating order costs")

	var result struct {
		Costs struct {
			Subtotal money `json:"subtotal"`
			Shipping money `json:"shipping"`
			Tax      money `json:"tax"`
			VAT      money `json:"vat"`
		} `json:"costs"`
		RetailCosts struct {
			Subtotal money `json:"subtotal"`
		} `json:"retail_costs"`
	}

	payload := map[string]any{
		"recipient": recipient,
		"items":     items,
	}
	if err := p.do(ctx, http.MethodPost, "/orders/estimate-costs", payload, &result); err != nil {
		logger.Error("cost estimate failed", "error", err)
		return nil, err
	}

	estimate := &CostEstimate{
		Subtotal:       result.Costs.Subtotal.Decimal,
		Shipping:       result.Costs.Shipping.Decimal,
		Tax:            result.Costs.Tax.Decimal,
		VAT:            result.Costs.VAT.Decimal,
		RetailSubtotal: result.RetailCosts.Subtotal.Decimal,
	}

	logger.Info("cost estimate fetched",
		"shipping", estimate.Shipping.String(),
		"tax", estimate.Tax.String(),
	)
	return estimate, nil
}

// SubmitOrder sends a paid order to Printful for production and shipping.
func (p *PrintfulProvider) SubmitOrder(ctx context.Context, recipient Recipient, items []OrderItem) (*SubmittedOrder, error) {
	if recipient.Address1 == "" || recipient.CountryCode == "" {
		return nil, ErrRecipientRequired
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	logger := p.logger.With(
		"country", recipient.CountryCode,
		"item_count", len(items),
	)
	logger.Info("submitting order")

	var result struct {
		ID           int64  `json:"id"`
		Status       string `json:"status"`
		DashboardURL string `json:"dashboard_url"`
		Recipient    struct {
			Email string `json:"email"`
		} `json:"recipient"`
	}

	payload := map[string]any{
		"recipient": recipient,
		"items":     items,
	}
	if err := p.do(ctx, http.MethodPost, "/orders", payload, &result); err != nil {
		logger.Error("order submission failed", "error", err)
		return nil, err
	}

	logger.Info("order submitted",
		"provider_order_id", result.ID,
		"status", result.Status,
	)
	return &SubmittedOrder{
		ID:             result.ID,
		Status:         result.Status,
		DashboardURL:   result.DashboardURL,
		RecipientEmail: result.Recipient.Email,
	}, nil
}

// Countries returns Printful's shipping destinations.
func (p *PrintfulProvider) Countries(ctx context.Context) ([]Country, error) {
	var result []struct {
		Code   string `json:"code"`
		Name   string `json:"name"`
		States []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"states"`
	}

	if err := p.do(ctx, http.MethodGet, "/countries", nil, &result); err != nil {
		return nil, err
	}

	countries := make([]Country, 0, len(result))
	for _, c := range result {
		country := Country{Code: c.Code, Name: c.Name}
		for _, s := range c.States {
			country.States = append(country.States, State{Code: s.Code, Name: s.Name})
		}
		countries = append(countries, country)
	}
	return countries, nil
}

// ListStoreProducts returns the sync product IDs configured in the store.
func (p *PrintfulProvider) ListStoreProducts(ctx context.Context) ([]int64, error) {
	var result []struct {
		ID int64 `json:"id"`
	}

	if err := p.do(ctx, http.MethodGet, "/store/products", nil, &result); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(result))
	for _, prod := range result {
		ids = append(ids, prod.ID)
	}
	return ids, nil
}

// StoreProduct fetches a sync product and its variants.
func (p *PrintfulProvider) StoreProduct(ctx context.Context, syncProductID int64) (*StoreProduct, error) {
	var result struct {
		SyncProduct struct {
			ID           int64  `json:"id"`
			Name         string `json:"name"`
			ThumbnailURL string `json:"thumbnail_url"`
		} `json:"sync_product"`
		SyncVariants []struct {
			ID          int64  `json:"id"`
			VariantID   int64  `json:"variant_id"`
			Name        string `json:"name"`
			RetailPrice money  `json:"retail_price"`
			Size        string `json:"size"`
			Color       string `json:"color"`
			Files       []struct {
				Type       string `json:"type"`
				PreviewURL string `json:"preview_url"`
			} `json:"files"`
			Product struct {
				ProductID int64 `json:"product_id"`
			} `json:"product"`
		} `json:"sync_variants"`
	}

	path := fmt.Sprintf("/store/products/%d", syncProductID)
	if err := p.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	product := &StoreProduct{
		ID:           result.SyncProduct.ID,
		Name:         result.SyncProduct.Name,
		ThumbnailURL: result.SyncProduct.ThumbnailURL,
	}
	for _, sv := range result.SyncVariants {
		if product.StockProductID == 0 {
			product.StockProductID = sv.Product.ProductID
		}

		variant := StoreVariant{
			SyncVariantID: sv.ID,
			VariantID:     sv.VariantID,
			Name:          sv.Name,
			RetailPrice:   sv.RetailPrice.Decimal,
			Size:          sv.Size,
			Color:         sv.Color,
		}
		// The first file is the print file; later files carry mockup previews.
		for _, f := range sv.Files {
			if f.Type == "preview" && f.PreviewURL != "" {
				variant.PreviewURL = f.PreviewURL
				break
			}
		}
		if variant.PreviewURL == "" && len(sv.Files) > 1 {
			variant.PreviewURL = sv.Files[len(sv.Files)-1].PreviewURL
		}
		product.Variants = append(product.Variants, variant)
	}

	if product.ThumbnailURL == "" && len(product.Variants) > 0 {
		product.ThumbnailURL = product.Variants[0].PreviewURL
	}

	return product, nil
}

// CatalogProduct fetches catalog-level data for a stock product.
func (p *PrintfulProvider) CatalogProduct(ctx context.Context, stockProductID int64) (*CatalogProduct, error) {
	var result struct {
		Product struct {
			ID          int64  `json:"id"`
			Description string `json:"description"`
		} `json:"product"`
		Variants []struct {
			ID                 int64 `json:"id"`
			AvailabilityStatus []struct {
				Status string `json:"status"`
			} `json:"availability_status"`
		} `json:"variants"`
	}

	path := fmt.Sprintf("/products/%d", stockProductID)
	if err := p.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	catalog := &CatalogProduct{
		ID:           result.Product.ID,
		Description:  result.Product.Description,
		Availability: make(map[int64]string, len(result.Variants)),
	}
	for _, v := range result.Variants {
		if len(v.AvailabilityStatus) > 0 {
			catalog.Availability[v.ID] = v.AvailabilityStatus[0].Status
		}
	}
	return catalog, nil
}

// RegisterStockWebhooks subscribes the callback URL to stock change
// notifications for the listed stock products.
func (p *PrintfulProvider) RegisterStockWebhooks(ctx context.Context, callbackURL string, stockProductIDs []int64) error {
	logger := p.logger.With(
		"callback_url", callbackURL,
		"product_count", len(stockProductIDs),
	)
	logger.Info("registering stock webhooks")

	payload := map[string]any{
		"url":   callbackURL,
		"types": []string{"stock_updated", "product_synced", "product_updated"},
		"params": map[string]any{
			"stock_updated": map[string]any{
				"product_ids": stockProductIDs,
			},
		},
	}
	if err := p.do(ctx, http.MethodPost, "/webhooks", payload, nil); err != nil {
		logger.Error("webhook registration failed", "error", err)
		return err
	}

	logger.Info("stock webhooks registered")
	return nil
}

// do performs an authenticated API call and decodes the result envelope.
func (p *PrintfulProvider) do(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ErrUpstream(0, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrUpstream(resp.StatusCode, "failed to read response body")
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrProductNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ErrUpstream(resp.StatusCode, apiErrorMessage(raw))
	}

	if result == nil {
		return nil
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ErrUpstream(resp.StatusCode, "malformed response envelope")
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return ErrUpstream(resp.StatusCode, "malformed response result")
	}
	return nil
}

// apiErrorMessage extracts a human-readable message from an error response.
func apiErrorMessage(raw []byte) string {
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "unexpected response"
	}
	if envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	var msg string
	if err := json.Unmarshal(envelope.Result, &msg); err == nil && msg != "" {
		return msg
	}
	return "unexpected response"
}
