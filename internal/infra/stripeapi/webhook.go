package stripeapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

const EventCheckoutSessionCompleted = "checkout.session.completed"

// Event is the subset of a Stripe webhook event the backend acts on.
// Data.Object keeps the raw JSON so the caller decides how to decode it.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// WebhookVerifier checks the stripe-signature header against the raw
// request body. Verification must run on the unparsed bytes.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Parse(payload []byte, sigHeader string) (Event, error) {
	if v.secret == "" {
		return Event{}, fmt.Errorf("webhook secret is empty")
	}

	if err := webhook.ValidatePayload(payload, sigHeader, v.secret); err != nil {
		return Event{}, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("decode webhook event: %w", err)
	}

	return event, nil
}

// SessionFromEvent decodes the checkout session object carried by a
// checkout.session.completed event.
func SessionFromEvent(event Event) (CheckoutSession, error) {
	var envelope sessionEnvelope
	if err := json.Unmarshal(event.Data.Object, &envelope); err != nil {
		return CheckoutSession{}, fmt.Errorf("decode event session: %w", err)
	}
	return envelope.toSession(), nil
}
