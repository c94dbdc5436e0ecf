package openmeteo

import (
	"context"
	"fmt"
	"testing"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	result domain.Location
	err    error
	calls  int
}

func (m *mockResolver) Resolve(_ context.Context, _ string) (domain.Location, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedResolver_CachesSuccesses(t *testing.T) {
	inner := &mockResolver{result: domain.Location{Name: "Fortaleza", Latitude: -3.7, Longitude: -38.5, Timezone: "America/Fortaleza"}}
	cached := NewCachedResolver(inner, 10, testMetrics())

	first, err := cached.Resolve(context.Background(), "Fortaleza")
	require.NoError(t, err)
	second, err := cached.Resolve(context.Background(), "Fortaleza")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second lookup must hit the cache")
}

func TestCachedResolver_KeyIsCaseInsensitive(t *testing.T) {
	inner := &mockResolver{result: domain.Location{Name: "Fortaleza"}}
	cached := NewCachedResolver(inner, 10, testMetrics())

	_, err := cached.Resolve(context.Background(), "Fortaleza")
	require.NoError(t, err)
	_, err = cached.Resolve(context.Background(), "  fortaleza ")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedResolver_DoesNotCacheFailures(t *testing.T) {
	inner := &mockResolver{err: fmt.Errorf("resolve: %w", domain.ErrNoResults)}
	cached := NewCachedResolver(inner, 10, testMetrics())

	_, err := cached.Resolve(context.Background(), "Atlantis")
	require.ErrorIs(t, err, domain.ErrNoResults)
	_, err = cached.Resolve(context.Background(), "Atlantis")
	require.ErrorIs(t, err, domain.ErrNoResults)

	assert.Equal(t, 2, inner.calls, "not-found must be retried, never cached")
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := newLRUCache(2)

	cache.put("a", domain.Location{Name: "A"})
	cache.put("b", domain.Location{Name: "B"})

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := cache.get("a")
	require.True(t, ok)

	cache.put("c", domain.Location{Name: "C"})

	_, ok = cache.get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = cache.get("a")
	assert.True(t, ok)
	_, ok = cache.get("c")
	assert.True(t, ok)
}

func TestLRUCache_UpdateExistingKey(t *testing.T) {
	cache := newLRUCache(2)

	cache.put("a", domain.Location{Name: "A"})
	cache.put("a", domain.Location{Name: "A2"})

	got, ok := cache.get("a")
	require.True(t, ok)
	assert.Equal(t, "A2", got.Name)
}
