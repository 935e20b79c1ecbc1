package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/metrics"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
	"github.com/krug-analyzer/backend/pkg/retry"
)

const (
	pagesPrefix   = "scrape:"
	counterPrefix = "ratelimit:"
)

type Client struct {
	client *redis.Client
}

func NewClient(ctx context.Context, host string, port int, password string, db int) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	cfg := retry.DefaultConfig()
	cfg.Logger = logger.GetLogger()

	err := retry.Do(ctx, cfg, func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) SetPages(ctx context.Context, key string, pages []models.PageContent, ttl time.Duration) error {
	data, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("failed to marshal pages: %w", err)
	}

	err = c.client.Set(ctx, pagesPrefix+key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set scrape cache: %w", err)
	}

	logger.Debug("Scrape result cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetPages(ctx context.Context, key string) ([]models.PageContent, bool, error) {
	data, err := c.client.Get(ctx, pagesPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues("scrape").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get scrape cache: %w", err)
	}

	var pages []models.PageContent
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal pages: %w", err)
	}

	metrics.CacheHits.WithLabelValues("scrape").Inc()
	logger.Debug("Scrape cache hit", zap.String("key", key))
	return pages, true, nil
}

func (c *Client) InvalidatePages(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, pagesPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Scrape cache invalidated")
	return nil
}

// IncrementWindow bumps the counter for name in the current fixed window and
// returns the new count. The key expires with the window.
func (c *Client) IncrementWindow(ctx context.Context, name string, window time.Duration) (int64, error) {
	slot := time.Now().UnixNano() / int64(window)
	key := fmt.Sprintf("%s%s:%d", counterPrefix, name, slot)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	return incr.Val(), nil
}
