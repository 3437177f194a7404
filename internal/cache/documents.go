package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldline/fieldline/pkg/metrics"
)

// Documents is a read-through Redis cache for raw store documents,
// keyed "doc:<model>:<id>". It caches the unresolved form only:
// populated and virtual fields are computed per read and never cached.
type Documents struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDocuments creates a document cache. Prefix may be empty; ttl <= 0
// falls back to one minute.
func NewDocuments(client *redis.Client, prefix string, ttl time.Duration) *Documents {
	if prefix == "" {
		prefix = "doc:"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Documents{client: client, prefix: prefix, ttl: ttl}
}

func (c *Documents) key(model, id string) string {
	return c.prefix + model + ":" + id
}

// Get returns the cached document, or nil on a miss. Decode failures
// count as misses so a poisoned entry self-heals on the next Put.
func (c *Documents) Get(ctx context.Context, model, id string) (map[string]any, error) {
	b, err := c.client.Get(ctx, c.key(model, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.CacheMisses.WithLabelValues(model).Inc()
			return nil, nil
		}
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		metrics.CacheMisses.WithLabelValues(model).Inc()
		return nil, nil
	}
	metrics.CacheHits.WithLabelValues(model).Inc()
	return doc, nil
}

func (c *Documents) Put(ctx context.Context, model, id string, doc map[string]any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(model, id), b, c.ttl).Err()
}

func (c *Documents) Invalidate(ctx context.Context, model, id string) error {
	return c.client.Del(ctx, c.key(model, id)).Err()
}
