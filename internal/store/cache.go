package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"matching-workers/internal/models"
)

const resultCacheKeyPrefix = "matching:results:"

// ResultCache keeps the last ranked response per project.
type ResultCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewResultCache(client redis.Cmdable, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

func resultCacheKey(projectID string) string {
	return resultCacheKeyPrefix + projectID
}

// Get returns the cached ranking. A miss is (nil, false, nil).
func (c *ResultCache) Get(ctx context.Context, projectID string) ([]models.RankedMatch, bool, error) {
	val, err := c.client.Get(ctx, resultCacheKey(projectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read result cache: %w", err)
	}

	var ranked []models.RankedMatch
	if err := json.Unmarshal(val, &ranked); err != nil {
		return nil, false, fmt.Errorf("decode result cache: %w", err)
	}
	return ranked, true, nil
}

// Put replaces the cached ranking for a project.
func (c *ResultCache) Put(ctx context.Context, projectID string, ranked []models.RankedMatch) error {
	data, err := json.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("encode result cache: %w", err)
	}
	if err := c.client.Set(ctx, resultCacheKey(projectID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("write result cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached ranking.
func (c *ResultCache) Invalidate(ctx context.Context, projectID string) error {
	return c.client.Del(ctx, resultCacheKey(projectID)).Err()
}
