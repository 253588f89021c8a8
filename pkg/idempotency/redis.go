package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "supportchat:idem:"

// Redis is a Store shared by every instance pointing at the same server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to url (redis://...) and pings it before returning.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	if url == "" {
		return nil, errors.New("redis: url is empty")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Redis{client: c, ttl: ttl}, nil
}

var (
	_ Store = (*Redis)(nil)
	_ Store = (*Memory)(nil)
)

func redisKey(conversationID, key string) string {
	return keyPrefix + conversationID + ":" + key
}

func (r *Redis) Lookup(ctx context.Context, conversationID, key string) (string, bool, error) {
	id, err := r.client.Get(ctx, redisKey(conversationID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (r *Redis) Remember(ctx context.Context, conversationID, key, messageID string) error {
	return r.client.Set(ctx, redisKey(conversationID, key), messageID, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
