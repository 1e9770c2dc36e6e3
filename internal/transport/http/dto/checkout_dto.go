package dto

type CreateCheckoutSessionRequest struct {
	ProductID string `json:"productId"`
}

type CreateCheckoutSessionResponse struct {
	URL string `json:"url"`
}

type CheckoutSessionResponse struct {
	Paid          bool   `json:"paid"`
	DownloadURL   string `json:"downloadUrl,omitempty"`
	ProductName   string `json:"productName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}
