// Package cache shares the latest dashboard snapshot across worker
// processes through Redis. The cache is optional: a nil *SnapshotCache is a
// valid no-op receiver, so callers never branch on whether Redis is
// configured.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gomodule/redigo/redis"

	"github.com/aura-wellness/aura-core/pkg/models"
)

const (
	snapshotKey = "aura:dashboard:snapshot"
	snapshotTTL = 15 * time.Minute
)

// SnapshotCache mirrors published snapshots into Redis.
type SnapshotCache struct {
	pool *redis.Pool
}

// New connects a SnapshotCache to the given Redis address. An empty address
// returns a nil cache, which all methods treat as a no-op.
func New(addr string) *SnapshotCache {
	if addr == "" {
		return nil
	}
	return &SnapshotCache{
		pool: &redis.Pool{
			MaxIdle:     3,
			IdleTimeout: 4 * time.Minute,
			DialContext: func(ctx context.Context) (redis.Conn, error) {
				return redis.DialContext(ctx, "tcp", addr,
					redis.DialConnectTimeout(2*time.Second),
					redis.DialReadTimeout(2*time.Second),
					redis.DialWriteTimeout(2*time.Second))
			},
			TestOnBorrow: func(c redis.Conn, t time.Time) error {
				if time.Since(t) < time.Minute {
					return nil
				}
				_, err := c.Do("PING")
				return err
			},
		},
	}
}

// Publish mirrors the snapshot to Redis. Errors are swallowed; the cache is
// an accelerator, never a dependency of the refresh path.
func (c *SnapshotCache) Publish(snapshot *models.Snapshot) {
	if c == nil || snapshot == nil {
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return
	}

	conn := c.pool.Get()
	defer conn.Close()
	_, _ = conn.Do("SET", snapshotKey, payload, "EX", int(snapshotTTL.Seconds()))
}

// Latest returns the most recently mirrored snapshot, or nil when the key is
// absent or Redis is unreachable.
func (c *SnapshotCache) Latest(ctx context.Context) (*models.Snapshot, error) {
	if c == nil {
		return nil, nil
	}

	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	defer conn.Close()

	payload, err := redis.Bytes(conn.Do("GET", snapshotKey))
	if err == redis.ErrNil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close releases the connection pool.
func (c *SnapshotCache) Close() error {
	if c == nil {
		return nil
	}
	return c.pool.Close()
}
