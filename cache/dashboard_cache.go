package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	dashboardKeyPrefix = "dashboard:"
	defaultTTL         = 5 * time.Minute
)

// Connect opens a Redis client and pings it.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// DashboardCache stores computed dashboard payloads. A nil *DashboardCache
// is valid and caches nothing, so the API runs without Redis.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func NewDashboardCache(client *redis.Client, ttl time.Duration, log *logrus.Logger) *DashboardCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &DashboardCache{client: client, ttl: ttl, log: log}
}

func Key(name string) string {
	return dashboardKeyPrefix + name
}

// Get decodes the cached value for name into dest and reports a hit.
// Errors are logged and treated as a miss.
func (c *DashboardCache) Get(ctx context.Context, name string, dest interface{}) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, Key(name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("key", Key(name)).Warn("Dashboard cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.WithError(err).WithField("key", Key(name)).Warn("Dashboard cache entry is corrupt")
		return false
	}
	return true
}

func (c *DashboardCache) Set(ctx context.Context, name string, value interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).Warn("Failed to marshal dashboard payload")
		return
	}
	if err := c.client.Set(ctx, Key(name), data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", Key(name)).Warn("Dashboard cache write failed")
	}
}

// Invalidate drops every dashboard entry.
func (c *DashboardCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, dashboardKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.WithError(err).Warn("Dashboard cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).Warn("Dashboard cache invalidation failed")
		return
	}
	c.log.WithField("keys", len(keys)).Debug("Dashboard cache invalidated")
}
