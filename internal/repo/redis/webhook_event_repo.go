package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	webhookEventPrefix = "webhook_events:"

	// Stripe retries events for up to three days; remember ids a bit longer.
	webhookEventTTL = 96 * time.Hour
)

// WebhookEventRepo remembers processed gateway event ids so retried
// webhook deliveries do not trigger a second notification.
type WebhookEventRepo struct {
	client *goredis.Client
}

func NewWebhookEventRepo(client *goredis.Client) *WebhookEventRepo {
	return &WebhookEventRepo{client: client}
}

// MarkProcessed records the event id and reports whether this delivery
// was the first one seen.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(eventID) == "" {
		return false, fmt.Errorf("event id is required")
	}

	first, err := r.client.SetNX(ctx, webhookEventKey(eventID), time.Now().UTC().Unix(), webhookEventTTL).Result()
	if err != nil {
		return false, fmt.Errorf("mark webhook event processed: %w", err)
	}

	return first, nil
}

func webhookEventKey(eventID string) string {
	return webhookEventPrefix + eventID
}
