package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "payroll:summary"

// SummaryCache stores JSON encoded payroll period summaries keyed by company and period.
// A nil *SummaryCache or one without a client behaves as an always-empty cache.
type SummaryCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *Metrics
}

func NewSummaryCache(client *redis.Client, ttl time.Duration, metrics *Metrics) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl, metrics: metrics}
}

func SummaryKey(companyID string, year, month int) string {
	return fmt.Sprintf("%s:%s:%04d-%02d", summaryKeyPrefix, companyID, year, month)
}

func (c *SummaryCache) enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the cached summary into dest. found is false on a miss.
func (c *SummaryCache) Get(ctx context.Context, companyID string, year, month int, dest interface{}) (found bool, err error) {
	if !c.enabled() {
		return false, nil
	}

	payload, err := c.client.Get(ctx, SummaryKey(companyID, year, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.miss("get")
		return false, nil
	}
	if err != nil {
		c.metrics.failure("get")
		return false, fmt.Errorf("cache: get summary: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		c.metrics.failure("get")
		return false, fmt.Errorf("cache: decode summary: %w", err)
	}
	c.metrics.hit("get")
	return true, nil
}

func (c *SummaryCache) Set(ctx context.Context, companyID string, year, month int, value interface{}) error {
	if !c.enabled() {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode summary: %w", err)
	}
	if err := c.client.Set(ctx, SummaryKey(companyID, year, month), raw, c.ttl).Err(); err != nil {
		c.metrics.failure("set")
		return fmt.Errorf("cache: set summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary of one period.
func (c *SummaryCache) Invalidate(ctx context.Context, companyID string, year, month int) error {
	if !c.enabled() {
		return nil
	}

	if err := c.client.Del(ctx, SummaryKey(companyID, year, month)).Err(); err != nil {
		c.metrics.failure("invalidate")
		return fmt.Errorf("cache: invalidate summary: %w", err)
	}
	return nil
}
