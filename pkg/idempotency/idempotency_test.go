package idempotency

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	conv := uuid.NewString()

	_, found, err := s.Lookup(ctx, conv, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Remember(ctx, conv, "k1", "msg-1"))

	id, found, err := s.Lookup(ctx, conv, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "msg-1", id)

	// keys are scoped to their conversation
	_, found, err = s.Lookup(ctx, uuid.NewString(), "k1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory(t *testing.T) {
	m := NewMemory(100, time.Minute)
	defer m.Close()
	exerciseStore(t, m)
}

func TestMemory_Expires(t *testing.T) {
	m := NewMemory(100, 20*time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Remember(ctx, "c1", "k", "m"))
	time.Sleep(40 * time.Millisecond)

	_, found, err := m.Lookup(ctx, "c1", "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	r, err := NewRedis(url, time.Minute)
	require.NoError(t, err)
	defer r.Close()
	exerciseStore(t, r)
}

func TestNewRedis_RejectsBadURL(t *testing.T) {
	_, err := NewRedis("", time.Minute)
	require.Error(t, err)

	_, err = NewRedis("not-a-redis-url", time.Minute)
	require.Error(t, err)
}
