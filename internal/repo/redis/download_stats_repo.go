package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

const downloadCountPrefix = "download_counts:"

// DownloadStatsRepo keeps per-product download counters. Best-effort
// only: callers log failures and carry on serving the file.
type DownloadStatsRepo struct {
	client *goredis.Client
}

func NewDownloadStatsRepo(client *goredis.Client) *DownloadStatsRepo {
	return &DownloadStatsRepo{client: client}
}

func (r *DownloadStatsRepo) Incr(ctx context.Context, productID string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(productID) == "" {
		return 0, fmt.Errorf("product id is required")
	}

	count, err := r.client.Incr(ctx, downloadCountKey(productID)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment download count: %w", err)
	}

	return count, nil
}

func (r *DownloadStatsRepo) Count(ctx context.Context, productID string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	count, err := r.client.Get(ctx, downloadCountKey(productID)).Int64()
	if err != nil && err != goredis.Nil {
		return 0, fmt.Errorf("read download count: %w", err)
	}
	if err == goredis.Nil {
		return 0, nil
	}

	return count, nil
}

func downloadCountKey(productID string) string {
	return downloadCountPrefix + productID
}
