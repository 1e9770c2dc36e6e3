package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrDelivery = errors.New("notification delivery failed")

const defaultTimeout = 10 * time.Second

type Config struct {
	APIKey string
	From   string
	// APIBase overrides the Resend endpoint, used by tests.
	APIBase string
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	from       string
	baseURL    string
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimSuffix(cfg.APIBase, "/")
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}

	return &Client{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		baseURL:    baseURL,
	}
}

type Email struct {
	To      string
	Subject string
	HTML    string
}

func (c *Client) Send(ctx context.Context, email Email) error {
	if c.apiKey == "" {
		return fmt.Errorf("resend api key is empty: %w", ErrDelivery)
	}
	if strings.TrimSpace(email.To) == "" || strings.TrimSpace(email.Subject) == "" {
		return fmt.Errorf("invalid email payload: %w", ErrDelivery)
	}

	body, err := json.Marshal(map[string]any{
		"from":    c.from,
		"to":      []string{email.To},
		"subject": email.Subject,
		"html":    email.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return fmt.Errorf("send email: status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(detail)), ErrDelivery)
	}

	return nil
}
