package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemoryCache()
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "days")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "days", "[]", time.Minute))
	got, err := m.Get(ctx, "days")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	require.NoError(t, m.Delete(ctx, "days", "unknown"))
	_, err = m.Get(ctx, "days")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemoryCache()
	defer m.Close()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "stats", "{}", time.Second))
	now = now.Add(2 * time.Second)

	_, err := m.Get(ctx, "stats")
	assert.ErrorIs(t, err, ErrMiss)

	m.evictExpired()
	m.mu.RLock()
	assert.Empty(t, m.items)
	m.mu.RUnlock()
}

func TestJSONHelpers(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemoryCache()
	defer m.Close()
	ctx := context.Background()

	type payload struct {
		Day int `json:"day"`
	}
	require.NoError(t, SetJSON(ctx, m, "k", payload{Day: 3}, 0))

	var got payload
	require.NoError(t, GetJSON(ctx, m, "k", &got))
	assert.Equal(t, 3, got.Day)

	assert.ErrorIs(t, GetJSON(ctx, m, "missing", &got), ErrMiss)
}

func TestNew_WithoutAddressUsesMemory(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := New("", "", 0)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestClose_Idempotent(t *testing.T) {
	m := NewMemoryCache()
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
