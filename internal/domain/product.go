package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry synced from the fulfillment provider.
// The catalog is replaced wholesale on every stock resync, so products carry
// no local mutable state beyond what the provider reports.
type Product struct {
	ProductID      int64     `json:"product_id"`
	StockProductID int64     `json:"stock_product_id"`
	Name           string    `json:"name"`
	PriceRange     string    `json:"price_range,omitempty"`
	ThumbnailURL   string    `json:"thumbnail_url"`
	Variants       []Variant `json:"variants"`
}

// Variant is one purchasable color/size combination of a product.
type Variant struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	InStock       bool            `json:"in_stock"`
	VariantID     int64           `json:"variant_id"`
	SyncVariantID int64           `json:"sync_variant_id"`
	Size          string          `json:"size,omitempty"`
	Color         string          `json:"color,omitempty"`
	RetailPrice   decimal.Decimal `json:"retail_price"`
	ImageURL      string          `json:"image_url,omitempty"`
}

// LineItem converts a variant into a cart line for the parent product.
func (v Variant) LineItem(productName string) LineItem {
	return LineItem{
		ProductID: v.ID,
		Title:     productName,
		UnitPrice: v.RetailPrice,
		ImageURL:  v.ImageURL,
		Color:     v.Color,
		Size:      v.Size,
		VariantID: v.SyncVariantID,
	}
}
