// Package registrycache provides an optional Redis-backed read-through cache
// in front of the lifecycle manager's agent status lookups, grounded on the
// registry command's Redis wiring. It never becomes the system of record:
// the lifecycle manager's in-process state remains authoritative, and a nil
// *Cache (Redis not configured) simply disables caching.
package registrycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentexec/core/internal/model"
)

// TTL is how long a cached agent status snapshot is trusted before a caller
// should re-derive it from the lifecycle manager directly.
const TTL = 5 * time.Second

// Cache wraps a Redis client scoped to a cluster name, mirroring the
// registry command's REGISTRY_NAME-scoped key convention.
type Cache struct {
	rdb  *redis.Client
	name string
}

// New constructs a Cache. Passing a nil rdb is valid and yields a Cache
// whose methods are all no-ops, so callers can wire caching optionally
// without branching at every call site.
func New(rdb *redis.Client, clusterName string) *Cache {
	return &Cache{rdb: rdb, name: clusterName}
}

func (c *Cache) key(agentName string) string {
	return fmt.Sprintf("agentexec:%s:agent:%s", c.name, agentName)
}

// Get returns the cached status for agentName, if present and unexpired.
func (c *Cache) Get(ctx context.Context, agentName string) (model.AgentService, bool) {
	if c == nil || c.rdb == nil {
		return model.AgentService{}, false
	}

	raw, err := c.rdb.Get(ctx, c.key(agentName)).Bytes()
	if err != nil {
		return model.AgentService{}, false
	}

	var svc model.AgentService
	if err := json.Unmarshal(raw, &svc); err != nil {
		return model.AgentService{}, false
	}
	return svc, true
}

// Set stores svc under its name with TTL. A nil Cache silently does nothing.
func (c *Cache) Set(ctx context.Context, svc model.AgentService) error {
	if c == nil || c.rdb == nil {
		return nil
	}

	raw, err := json.Marshal(svc)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(svc.Name), raw, TTL).Err()
}

// Invalidate removes any cached entry for agentName, used whenever the
// lifecycle manager observes a state transition so stale reads are never
// served past a known change.
func (c *Cache) Invalidate(ctx context.Context, agentName string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.key(agentName)).Err()
}
