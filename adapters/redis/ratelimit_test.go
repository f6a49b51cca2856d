package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up a miniredis server and returns a client plus the server.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestLimiter_AllowsUpToLimitPerWindow(t *testing.T) {
	client, _ := newTestClient(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(client, "test", 2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok, "third request in the window should be refused")

	ok, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok, "other clients have their own budget")

	now = now.Add(time.Minute)
	ok, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "budget resets in the next window")
}

func TestLimiter_SetsExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	now := time.Date(2026, 10, 19, 12, 0, 30, 0, time.UTC)
	l := NewLimiter(client, "test", 5, time.Minute)
	l.now = func() time.Time { return now }

	_, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)

	key := l.windowKey("k")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	assert.False(t, mr.Exists(key))
}

func TestLimiter_ServerDown(t *testing.T) {
	client, mr := newTestClient(t)
	l := NewLimiter(client, "test", 1, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestLimiter_InvalidConfig(t *testing.T) {
	l := &Limiter{}
	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewClient_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond
	_, err := NewClient(cfg)
	assert.Error(t, err)
}

func TestNewClient_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Addr = mr.Addr()
	client, err := NewClient(cfg)
	require.NoError(t, err)
	require.NoError(t, client.Close())
}
