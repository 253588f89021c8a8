// Package idempotency remembers which message a client-supplied key produced,
// so a retried send returns the original message instead of a duplicate.
package idempotency

import (
	"context"
	"time"

	"SupportChat/pkg/cache"
)

// Store maps (conversationID, key) to the id of the message it produced.
type Store interface {
	Lookup(ctx context.Context, conversationID, key string) (messageID string, found bool, err error)
	Remember(ctx context.Context, conversationID, key, messageID string) error
}

// Memory is a process-local Store backed by the TTL/LRU cache.
// Keys are not shared between instances; use Redis for that.
type Memory struct {
	c   *cache.Cache
	ttl time.Duration
}

// NewMemory keeps at most maxItems keys for ttl each.
func NewMemory(maxItems int, ttl time.Duration) *Memory {
	return &Memory{c: cache.New(maxItems, time.Minute), ttl: ttl}
}

func (m *Memory) Lookup(_ context.Context, conversationID, key string) (string, bool, error) {
	v, ok := m.c.Get(cache.KeyFromStrings(conversationID, key))
	if !ok {
		return "", false, nil
	}
	id, ok := v.(string)
	return id, ok, nil
}

func (m *Memory) Remember(_ context.Context, conversationID, key, messageID string) error {
	m.c.Set(cache.KeyFromStrings(conversationID, key), messageID, m.ttl)
	return nil
}

func (m *Memory) Close() error {
	m.c.Close()
	return nil
}
