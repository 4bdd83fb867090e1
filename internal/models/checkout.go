package models

type CheckoutRequest struct {
	Product string `json:"produto"`
}

type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

type Product struct {
	Key     string `json:"key"`
	PriceID string `json:"price_id"`
}
