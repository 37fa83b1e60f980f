package domain

// LineItem represents a single purchasable variant in the shopper's cart.
// Display fields and the unit price are denormalized at add time and are not
// re-fetched while the item sits in the cart.
type LineItem struct {
	ProductID    string `json:"product_id"`
	VariantID    string `json:"variant_id"`
	Name         string `json:"name"`
	VariantLabel string `json:"variant_label"`
	UnitPrice    int64  `json:"unit_price"`
	ImageURL     string `json:"image_url,omitempty"`
	Quantity     int    `json:"quantity"`
	StockCeiling int    `json:"stock_ceiling"`
}

// ClampQuantity bounds q to [1, StockCeiling]. The ceiling is the stock
// snapshot taken when the item was added; the authoritative stock check
// happens at order placement.
func (li LineItem) ClampQuantity(q int) int {
	if q > li.StockCeiling {
		q = li.StockCeiling
	}
	if q < 1 {
		q = 1
	}
	return q
}

// Cart is the shopper's cart state: line items in display order plus the
// selected shipping method and its derived price.
type Cart struct {
	Items            []LineItem `json:"items"`
	ShippingMethodID string     `json:"shipping_method_id,omitempty"`
	ShippingPrice    int64      `json:"shipping_price"`
}

// TotalItems returns the sum of quantities across all line items.
func (c *Cart) TotalItems() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// TotalAmount calculates the cart total in cents: unit price times quantity
// for every line item, plus the shipping price.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total + c.ShippingPrice
}

// FindItemIndex returns the index of the line item with the given variant ID,
// or -1 if not present. Variant IDs are unique within a cart.
func (c *Cart) FindItemIndex(variantID string) int {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}
