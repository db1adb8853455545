package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcn-hostel-prices/internal/config"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	body := []byte("<html>hotel</html>")
	require.NoError(t, m.Set(ctx, "k", body, time.Minute))
	body[0] = 'X'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<html>hotel</html>", string(got))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(2 * time.Minute)

	_, ok, _ := m.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestNewByDriver(t *testing.T) {
	cfg := config.Default()

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, c)

	cfg.Cache.Driver = "memory"
	c, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	cfg.Cache.Driver = "memcached"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
