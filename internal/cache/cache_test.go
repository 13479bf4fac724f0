package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, time.Minute)

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "prompt:abc", "hello", 0))
	v, ok, err := m.Get(ctx, "prompt:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	require.NoError(t, m.Delete(ctx, "prompt:abc"))
	_, ok, _ = m.Get(ctx, "prompt:abc")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, time.Minute)

	require.NoError(t, m.Set(ctx, "k", 1, 5*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_InvalidatePattern(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, time.Minute)

	for _, k := range []string{"perm:q1:u1", "perm:q1:u2", "perm:q2:u1", "quiz:q1", "quiz:q1:detail"} {
		require.NoError(t, m.Set(ctx, k, true, 0))
	}

	n, err := m.InvalidatePattern(ctx, "perm:q1:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.InvalidatePattern(ctx, "quiz:q1*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 1, m.Len())
	_, ok, _ := m.Get(ctx, "perm:q2:u1")
	assert.True(t, ok)

	_, err = m.InvalidatePattern(ctx, "[")
	assert.Error(t, err)
}
