package domain

// ShippingMethod is one deliverable option configured for the store's
// shipping zones. Price is in cents.
type ShippingMethod struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	DeliveryEstimate string `json:"delivery_estimate,omitempty"`
}
