package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harbourfi/vestcore/internal/investment"
	"github.com/harbourfi/vestcore/pkg/logger"
)

const (
	// DefaultTTL is the default TTL for cached plans. Plans are seeded
	// reference data, so a long TTL is fine.
	DefaultTTL = 10 * time.Minute

	// keyPrefix is the prefix for plan cache keys
	keyPrefix = "plan:"

	// listKey caches the full plan listing
	listKey = "plan:all"
)

// PlanCache is a Redis-backed read-through cache over a PlanSource. Cache
// faults degrade to the underlying source, never to an error.
type PlanCache struct {
	client *redis.Client
	source investment.PlanSource
	ttl    time.Duration
	logger *logger.Logger
}

// NewPlanCache creates a plan cache in front of a source
func NewPlanCache(client *redis.Client, source investment.PlanSource, log *logger.Logger) *PlanCache {
	return &PlanCache{
		client: client,
		source: source,
		ttl:    DefaultTTL,
		logger: log.WithField("component", "plan_cache"),
	}
}

// GetPlan retrieves a plan by ID, serving from cache when possible
func (c *PlanCache) GetPlan(ctx context.Context, id int64) (*investment.Plan, error) {
	key := fmt.Sprintf("%s%d", keyPrefix, id)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var plan investment.Plan
		if err := json.Unmarshal([]byte(val), &plan); err == nil {
			c.logger.Debug("cache hit", "plan_id", id)
			return &plan, nil
		}
	} else if err != redis.Nil {
		c.logger.Error("cache error", "operation", "get", "plan_id", id, "error", err)
	}

	plan, err := c.source.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(plan); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Error("cache error", "operation", "set", "plan_id", id, "error", err)
		}
	}

	return plan, nil
}

// ListPlans returns all plans, serving from cache when possible
func (c *PlanCache) ListPlans(ctx context.Context) ([]*investment.Plan, error) {
	val, err := c.client.Get(ctx, listKey).Result()
	if err == nil {
		var plans []*investment.Plan
		if err := json.Unmarshal([]byte(val), &plans); err == nil {
			c.logger.Debug("cache hit", "key", listKey)
			return plans, nil
		}
	} else if err != redis.Nil {
		c.logger.Error("cache error", "operation", "get", "key", listKey, "error", err)
	}

	plans, err := c.source.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(plans); err == nil {
		if err := c.client.Set(ctx, listKey, data, c.ttl).Err(); err != nil {
			c.logger.Error("cache error", "operation", "set", "key", listKey, "error", err)
		}
	}

	return plans, nil
}

// Invalidate drops cached plan data
func (c *PlanCache) Invalidate(ctx context.Context, id int64) error {
	key := fmt.Sprintf("%s%d", keyPrefix, id)
	return c.client.Del(ctx, key, listKey).Err()
}
