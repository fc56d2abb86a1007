// Package rdx is a small JSON read-through cache on Redis. A nil *Cache is
// valid and caches nothing, so callers never branch on whether Redis is
// configured.
package rdx

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 2 * time.Hour

// IngredientsGeneration versions every key derived from ingredient records.
const IngredientsGeneration = "ingredients"

type Cache struct {
	conn *redis.Client
	ttl  time.Duration
}

// New returns nil when addr is empty.
func New(addr, password string) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{
		conn: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
		ttl: DefaultTTL,
	}
}

func (c *Cache) Enabled() bool {
	return c != nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.conn.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.conn.Close()
}

// GetJSON decodes the cached value at key into dest and reports whether it
// was present.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.conn.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.conn.Set(ctx, key, data, c.ttl).Err()
}

// Generation reads a counter that versions a family of keys. A missing
// counter is generation zero.
func (c *Cache) Generation(ctx context.Context, name string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	n, err := c.conn.Get(ctx, generationKey(name)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Bump advances the generation, orphaning every key built from the old one.
func (c *Cache) Bump(ctx context.Context, name string) error {
	if c == nil {
		return nil
	}
	return c.conn.Incr(ctx, generationKey(name)).Err()
}

func generationKey(name string) string {
	return "gen:" + name
}

// QueryKey hashes params in key order so equal parameter sets share a key.
func QueryKey(prefix string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(":")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}

	sum := md5.Sum([]byte(b.String()))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
