package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// LineItem is one product-variant entry in a cart or order.
type LineItem struct {
	// ProductID identifies the catalog variant this line was added from.
	// Unique within a cart: adding the same product again merges quantities.
	ProductID string `json:"product_id"`

	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`

	// VariantID is the fulfillment provider's sync variant identifier,
	// carried opaquely from catalog to fulfillment submission.
	VariantID int64 `json:"variant_id"`
}

// LineTotal returns unit price multiplied by quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is a session-scoped collection of priced line items with derived
// totals. It is a pure in-memory value: persistence belongs to the session
// store, and nothing here performs I/O.
//
// ItemCount and Total are recomputed from Items after every mutation rather
// than patched incrementally, so they are never observed stale.
type Cart struct {
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"totalAmount"`
}

// QuantityUpdate pairs a product with its new (or delta) quantity.
type QuantityUpdate struct {
	ProductID string
	Quantity  int
}

// NewCart returns an empty cart with zeroed totals.
func NewCart() *Cart {
	return &Cart{Items: []LineItem{}, Total: decimal.Zero}
}

// Contains reports whether the cart holds a line for the given product.
func (c *Cart) Contains(productID string) bool {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// AddItem appends the item with the given quantity, or, when a line for the
// same product already exists, increases that line's quantity instead of
// duplicating the row. Quantities below 1 are coerced to 1.
func (c *Cart) AddItem(item LineItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	if c.Contains(item.ProductID) {
		c.UpdateQuantities([]QuantityUpdate{{ProductID: item.ProductID, Quantity: quantity}}, true)
		return
	}

	item.Quantity = quantity
	c.Items = append(c.Items, item)
	c.recalculate()
}

// RemoveItem removes the line for the given product. Removing a product that
// is not in the cart is a no-op, not an error.
func (c *Cart) RemoveItem(productID string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(c.Items) {
		return
	}
	c.Items = kept
	c.recalculate()
}

// UpdateQuantities applies a one-to-one list of per-product quantity updates.
// In increase mode a positive quantity is added to the existing line. Otherwise
// a positive quantity that differs from the current one replaces it. A zero or
// negative quantity never reaches a line through this path: quantity zero means
// removal and is routed to RemoveItem by callers.
// Updates for products not in the cart are ignored.
// Totals are recomputed only when at least one line changed.
func (c *Cart) UpdateQuantities(updates []QuantityUpdate, increase bool) {
	changed := false
	for _, u := range updates {
		for i := range c.Items {
			if c.Items[i].ProductID != u.ProductID {
				continue
			}
			switch {
			case increase && u.Quantity > 0:
				c.Items[i].Quantity += u.Quantity
				changed = true
			case u.Quantity > 0 && u.Quantity != c.Items[i].Quantity:
				c.Items[i].Quantity = u.Quantity
				changed = true
			}
		}
	}
	if changed {
		c.recalculate()
	}
}

// Empty clears all items and resets totals to zero.
func (c *Cart) Empty() {
	c.Items = []LineItem{}
	c.recalculate()
}

// recalculate derives ItemCount and Total from Items. Called after every
// structural mutation; totals must never be read mid-mutation.
func (c *Cart) recalculate() {
	count := 0
	total := decimal.Zero
	for _, item := range c.Items {
		count += item.Quantity
		total = total.Add(item.LineTotal())
	}
	c.ItemCount = count
	c.Total = total
}

// ParseQuantity parses a user-supplied quantity string, falling back to 1 for
// missing, unparsable, or non-positive input. Input validation proper happens
// at the boundary; the cart only ever sees a positive integer.
func ParseQuantity(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
