package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestMemoryStore_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore().WithClock(c.now)

	require.NoError(t, s.Set(ctx, "index", []byte("snapshot"), time.Minute))
	require.NoError(t, s.Set(ctx, "forever", []byte("x"), 0))

	v, ok, err := s.Get(ctx, "index")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("snapshot"), v)

	c.t = c.t.Add(time.Minute)
	_, ok, _ = s.Get(ctx, "index")
	assert.False(t, ok)

	_, ok, _ = s.Get(ctx, "forever")
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "forever"))
	_, ok, _ = s.Get(ctx, "forever")
	assert.False(t, ok)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf, 0))
	buf[0] = 'z'

	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestMemoryCounter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	counter := NewMemoryCounter(NewMemoryStore().WithClock(c.now))

	n, err := counter.Get(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for i := 1; i <= 3; i++ {
		n, err = counter.Increment(ctx, "client")
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}
	require.NoError(t, counter.Expire(ctx, "client", time.Second))

	n, _ = counter.Get(ctx, "client")
	assert.Equal(t, int64(3), n)

	c.t = c.t.Add(time.Second)
	n, _ = counter.Get(ctx, "client")
	assert.Equal(t, int64(0), n)

	n, _ = counter.Increment(ctx, "client")
	assert.Equal(t, int64(1), n)
}

func TestMemoryCounter_ExpireMissingKey(t *testing.T) {
	counter := NewMemoryCounter(nil)
	assert.NoError(t, counter.Expire(context.Background(), "missing", time.Minute))
}

func TestMemoryCounter_SweepsPastWindows(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore().WithClock(c.now)
	counter := NewMemoryCounter(store)
	require.NoError(t, store.Set(ctx, "forever", []byte("x"), 0))

	for i := 0; i < 1000; i++ {
		key := "ratelimit:api:10.0.0.1:" + strconv.Itoa(i)
		_, err := counter.Increment(ctx, key)
		require.NoError(t, err)
		require.NoError(t, counter.Expire(ctx, key, time.Minute))
		c.t = c.t.Add(time.Minute)
	}

	assert.LessOrEqual(t, store.Len(), 3)
	_, ok, _ := store.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemoryStore_SweepWaitsForInterval(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore().WithClock(c.now)

	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Second))
	c.t = c.t.Add(2 * time.Second)
	require.NoError(t, s.Set(ctx, "b", []byte("2"), time.Second))
	assert.Equal(t, 2, s.Len())

	c.t = c.t.Add(sweepInterval)
	require.NoError(t, s.Set(ctx, "c", []byte("3"), time.Hour))
	assert.Equal(t, 1, s.Len())
}
