package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

var enFr = domain.LanguagePair{From: "en", To: "fr"}

func TestKeyDistinguishesParts(t *testing.T) {
	base := Key("fp1", enFr, "hello")
	require.Len(t, base, 64)
	require.Equal(t, base, Key("fp1", enFr, "hello"))
	require.NotEqual(t, base, Key("fp2", enFr, "hello"))
	require.NotEqual(t, base, Key("fp1", enFr.Reverse(), "hello"))
	require.NotEqual(t, base, Key("fp1", enFr, "hello!"))
	// Field boundaries are delimited.
	require.NotEqual(t,
		Key("fp", domain.LanguagePair{From: "en", To: "fr"}, "x"),
		Key("fpe", domain.LanguagePair{From: "n", To: "fr"}, "x"))
}

func TestLRUGetSet(t *testing.T) {
	c, err := NewLRU(2, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	c.Set(ctx, "a", "A", 0)
	c.Set(ctx, "b", "B", 0)
	got, ok := c.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, "A", got)

	// "b" is least recently used now.
	c.Set(ctx, "c", "C", 0)
	_, ok = c.Get(ctx, "b")
	require.False(t, ok)
	require.Equal(t, 2, c.Len())

	require.NoError(t, c.Close())
	require.Zero(t, c.Len())
}

func TestLRUExpiry(t *testing.T) {
	c, err := NewLRU(0, 0)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", "v", time.Second)
	_, ok := c.Get(ctx, "k")
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get(ctx, "k")
	require.False(t, ok)
	require.Zero(t, c.Len())
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	b := newBreaker()
	now := time.Unix(1_700_000_000, 0)
	b.now = func() time.Time { return now }

	for i := 0; i < breakerThreshold-1; i++ {
		b.recordFailure()
	}
	require.False(t, b.isOpen())

	b.recordFailure()
	require.True(t, b.isOpen())

	now = now.Add(breakerCooldown + time.Second)
	require.False(t, b.isOpen())

	b.recordSuccess()
	require.False(t, b.isOpen())
}

func TestRedisUnreachableDegradesToLocal(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c, err := newRedis(client, RedisConfig{})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < breakerThreshold; i++ {
		_, ok := c.Get(ctx, uuid.NewString())
		require.False(t, ok)
	}
	require.True(t, c.breaker.isOpen())

	c.Set(ctx, "k", "v", 0)
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, "v", got)
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("LINGUASPARK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LINGUASPARK_TEST_REDIS_URL not set")
	}

	prefix := "linguaspark:test:" + uuid.NewString() + ":"
	c, err := NewRedis(RedisConfig{RedisURL: url, KeyPrefix: prefix, TTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	key := Key("fp", enFr, "hello")
	c.Set(ctx, key, "bonjour", 0)

	// A second instance has an empty local tier and must read Redis.
	other, err := NewRedis(RedisConfig{RedisURL: url, KeyPrefix: prefix})
	require.NoError(t, err)
	defer other.Close()

	got, ok := other.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, "bonjour", got)
	require.NoError(t, other.HealthCheck(ctx))
}
