package stripeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
)

var (
	ErrUpstream        = errors.New("payment gateway error")
	ErrSessionNotFound = errors.New("checkout session not found")
)

const defaultTimeout = 20 * time.Second

type Config struct {
	SecretKey string
	// APIBase overrides the Stripe endpoint, used by tests against httptest.
	APIBase string
}

// Client talks to the Stripe REST API directly over HTTP with
// form-encoded requests. Only the checkout-session surface is covered.
type Client struct {
	httpClient *http.Client
	secretKey  string
	baseURL    string
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimSuffix(cfg.APIBase, "/")
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}

	return &Client{
		httpClient: httpClient,
		secretKey:  cfg.SecretKey,
		baseURL:    baseURL,
	}
}

type CheckoutSessionRequest struct {
	ProductName string
	AmountMinor int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	Metadata      map[string]string
	CustomerEmail string
}

func (s CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	if strings.TrimSpace(req.ProductName) == "" || req.AmountMinor <= 0 {
		return CheckoutSession{}, fmt.Errorf("invalid checkout session request")
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "eur"
	}

	params := url.Values{}
	params.Set("mode", "payment")
	params.Set("line_items[0][price_data][currency]", currency)
	params.Set("line_items[0][price_data][product_data][name]", req.ProductName)
	params.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.AmountMinor, 10))
	params.Set("line_items[0][quantity]", "1")
	params.Set("success_url", req.SuccessURL)
	params.Set("cancel_url", req.CancelURL)
	for key, value := range req.Metadata {
		params.Set("metadata["+key+"]", value)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(params.Encode()))
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())
	c.setAuthHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CheckoutSession{}, c.upstreamError("create checkout session", resp)
	}

	return decodeSession(resp.Body)
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CheckoutSession{}, fmt.Errorf("session id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("build session fetch: %w", err)
	}
	c.setAuthHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("fetch checkout session: %w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return CheckoutSession{}, ErrSessionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return CheckoutSession{}, c.upstreamError("fetch checkout session", resp)
	}

	return decodeSession(resp.Body)
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Stripe-Version", stripe.APIVersion)
}

func (c *Client) upstreamError(operation string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("%s: status %d, unreadable body: %w", operation, resp.StatusCode, ErrUpstream)
	}

	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if jsonErr := json.Unmarshal(body, &envelope); jsonErr != nil || envelope.Error.Message == "" {
		return fmt.Errorf("%s: status %d: %w", operation, resp.StatusCode, ErrUpstream)
	}

	return fmt.Errorf("%s: %s (%s): %w", operation, envelope.Error.Message, envelope.Error.Code, ErrUpstream)
}

type sessionEnvelope struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	PaymentStatus   string            `json:"payment_status"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	CustomerEmail string `json:"customer_email"`
}

func decodeSession(r io.Reader) (CheckoutSession, error) {
	var envelope sessionEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return CheckoutSession{}, fmt.Errorf("decode checkout session: %w", err)
	}
	return envelope.toSession(), nil
}

func (e sessionEnvelope) toSession() CheckoutSession {
	session := CheckoutSession{
		ID:            e.ID,
		URL:           e.URL,
		PaymentStatus: e.PaymentStatus,
		Metadata:      e.Metadata,
		CustomerEmail: e.CustomerEmail,
	}
	if e.CustomerDetails != nil && e.CustomerDetails.Email != "" {
		session.CustomerEmail = e.CustomerDetails.Email
	}
	return session
}
