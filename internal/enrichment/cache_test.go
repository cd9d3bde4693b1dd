package enrichment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute, 10)
	c.now = func() time.Time { return now }

	c.Set(ctx, "movie:heat:1995", []byte(`{"id":949}`))
	got, ok := c.Get(ctx, "movie:heat:1995")
	require.True(t, ok)
	assert.Equal(t, `{"id":949}`, string(got))

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "movie:heat:1995")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheBound(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour, 10)
	for i := 0; i < 25; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"))
	}
	assert.LessOrEqual(t, c.Len(), 10)

	_, ok := c.Get(ctx, "k24")
	assert.True(t, ok, "most recent entry survives eviction")
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, "redis://"+mr.Addr(), time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(ctx, "tv:dark:2017")
	assert.False(t, ok)

	c.Set(ctx, "tv:dark:2017", []byte(`{"id":70523}`))
	got, ok := c.Get(ctx, "tv:dark:2017")
	require.True(t, ok)
	assert.Equal(t, `{"id":70523}`, string(got))
	assert.True(t, mr.Exists(redisKeyPrefix+"tv:dark:2017"))

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "tv:dark:2017")
	assert.False(t, ok)
}

func TestRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-url", time.Minute, zerolog.Nop())
	assert.Error(t, err)
}
