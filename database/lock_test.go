package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	token, err := l.TryLock(ctx, "onboard:p1", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := l.TryLock(ctx, "onboard:p1", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again)

	assert.Error(t, l.Unlock(ctx, "onboard:p1", "someone-else"))
	require.NoError(t, l.Unlock(ctx, "onboard:p1", token))

	token, err = l.TryLock(ctx, "onboard:p1", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLocalLockerExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLocker()
	l.clock = func() time.Time { return now }

	_, err := l.TryLock(context.Background(), "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	token, err := l.TryLock(context.Background(), "k", time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestWithLockHeld(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	_, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)

	called := false
	err = WithLock(ctx, l, "k", func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrLockHeld)
	assert.False(t, called)

	require.NoError(t, WithLock(ctx, l, "other", func() error { called = true; return nil }))
	assert.True(t, called)
}
