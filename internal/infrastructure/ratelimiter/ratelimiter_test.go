package ratelimiter

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowConsumesBurst(t *testing.T) {
	cache := NewInMemory()
	defer cache.Close()

	rl := New(Options{MaxRatePerSecond: 1, MaxBurst: 3, Cache: cache})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("k"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("k"), "burst exhausted")
}

func TestKeysAreIndependent(t *testing.T) {
	cache := NewInMemory()
	defer cache.Close()

	rl := New(Options{MaxRatePerSecond: 1, MaxBurst: 1, Cache: cache})

	require.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}

func TestGetSourceKey(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, SourceHeaderKey: "X-Forwarded-For"})

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1")
	assert.Equal(t, "10.0.0.1", rl.GetSourceKey(r))

	r = httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, r.RemoteAddr, rl.GetSourceKey(r))
}

func TestInMemoryCacheMiss(t *testing.T) {
	cache := NewInMemory()
	defer cache.Close()

	_, err := cache.Get("missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set("k", 7))
	v, err := cache.Get("k")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
