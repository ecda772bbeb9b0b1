package bank

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

const topicCacheKeyPrefix = "questions:topic:"

// Cache holds question sets per topic. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key TopicKey) ([]Question, bool, error)
	Set(ctx context.Context, key TopicKey, qs []Question) error
	Invalidate(ctx context.Context, keys ...TopicKey) error
}

// NopCache never stores anything; used when no redis is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, TopicKey) ([]Question, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, TopicKey, []Question) error         { return nil }
func (NopCache) Invalidate(context.Context, ...TopicKey) error           { return nil }

// RedisCache caches topic question sets in redis as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// redisKey escapes each part so a ':' inside a topic cannot collide with the separator.
func redisKey(k TopicKey) string {
	return topicCacheKeyPrefix + url.QueryEscape(k.Class) + ":" + url.QueryEscape(k.Subject) + ":" + url.QueryEscape(k.Topic)
}

func (c *RedisCache) Get(ctx context.Context, key TopicKey) ([]Question, bool, error) {
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var qs []Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, false, err
	}
	return qs, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key TopicKey, qs []Question) error {
	data, err := json.Marshal(qs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(key), data, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...TopicKey) error {
	if len(keys) == 0 {
		return nil
	}
	rk := make([]string, len(keys))
	for i, k := range keys {
		rk[i] = redisKey(k)
	}
	return c.client.Del(ctx, rk...).Err()
}
