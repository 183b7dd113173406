package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAcquire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ok, _, err := m.Acquire(ctx, "otp:u1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(20 * time.Second)
	ok, remaining, err := m.Acquire(ctx, "otp:u1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, remaining)

	ok, _, err = m.Acquire(ctx, "otp:u2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	now = now.Add(40 * time.Second)
	ok, _, err = m.Acquire(ctx, "otp:u1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired cooldown is free again")
}

func TestMemoryRelease(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, _, _ := m.Acquire(ctx, "k", time.Hour)
	require.True(t, ok)
	require.NoError(t, m.Release(ctx, "k"))

	ok, _, _ = m.Acquire(ctx, "k", time.Hour)
	assert.True(t, ok)
}
