package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ClaimExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewCache()
	c.now = func() time.Time { return now }

	first, err := c.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, _ := c.Claim(ctx, "k", time.Minute)
	assert.False(t, again)

	now = now.Add(2 * time.Minute)
	again, _ = c.Claim(ctx, "k", time.Minute)
	assert.True(t, again)
}

func TestCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	var out map[string]int
	found, err := c.Get(ctx, "m", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "m", map[string]int{"a": 1}))
	found, err = c.Get(ctx, "m", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, out["a"])

	require.NoError(t, c.Delete(ctx, "m", "absent"))
	found, _ = c.Get(ctx, "m", &out)
	assert.False(t, found)
}
