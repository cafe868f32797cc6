package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehound/coursehound/internal/searcher"
	"github.com/coursehound/coursehound/pkg/config"
)

// Tests exercise the in-process tier only; the Redis tier needs a live
// server and is covered by integration runs.

func newLocalCache(t *testing.T) *QueryCache {
	t.Helper()
	c, err := New(nil, config.RedisConfig{}, 16)
	require.NoError(t, err)
	return c
}

func sampleResponse() *searcher.Response {
	return &searcher.Response{
		Query:     "machine learning",
		TotalHits: 1,
		Results: []searcher.Result{
			{ID: "c1", Score: 0.7, Name: "Machine Learning MSc"},
		},
	}
}

func TestGetMissThenHit(t *testing.T) {
	ctx := context.Background()
	c := newLocalCache(t)
	req := searcher.Request{Query: "machine learning", Limit: 10}

	_, ok := c.Get(ctx, req)
	assert.False(t, ok)

	c.Set(ctx, req, sampleResponse())

	got, ok := c.Get(ctx, req)
	require.True(t, ok)
	assert.Equal(t, sampleResponse(), got)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestRequestsCacheIndependently(t *testing.T) {
	ctx := context.Background()
	c := newLocalCache(t)

	c.Set(ctx, searcher.Request{Query: "machine learning", Limit: 10}, sampleResponse())

	_, ok := c.Get(ctx, searcher.Request{Query: "machine learning", Limit: 20})
	assert.False(t, ok, "different limit must not share an entry")

	_, ok = c.Get(ctx, searcher.Request{Query: "machine learning", Limit: 10, OnlineOnly: true})
	assert.False(t, ok, "different filters must not share an entry")
}

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()
	c := newLocalCache(t)
	req := searcher.Request{Query: "machine learning"}

	calls := 0
	compute := func() (*searcher.Response, error) {
		calls++
		return sampleResponse(), nil
	}

	resp, cached, err := c.GetOrCompute(ctx, req, compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, calls)
	assert.Equal(t, sampleResponse(), resp)

	resp, cached, err = c.GetOrCompute(ctx, req, compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, calls)
	assert.Equal(t, sampleResponse(), resp)
}

func TestGetOrComputePropagatesErrors(t *testing.T) {
	ctx := context.Background()
	c := newLocalCache(t)
	wantErr := errors.New("store down")

	_, _, err := c.GetOrCompute(ctx, searcher.Request{Query: "q"}, func() (*searcher.Response, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// failures are not cached
	resp, cached, err := c.GetOrCompute(ctx, searcher.Request{Query: "q"}, func() (*searcher.Response, error) {
		return sampleResponse(), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, resp)
}

func TestInvalidatePurgesLocalTier(t *testing.T) {
	ctx := context.Background()
	c := newLocalCache(t)
	req := searcher.Request{Query: "machine learning"}

	c.Set(ctx, req, sampleResponse())
	require.NoError(t, c.Invalidate(ctx))

	_, ok := c.Get(ctx, req)
	assert.False(t, ok)
}

func TestDisabledLocalTier(t *testing.T) {
	c, err := New(nil, config.RedisConfig{}, 0)
	require.NoError(t, err)

	ctx := context.Background()
	req := searcher.Request{Query: "q"}
	c.Set(ctx, req, sampleResponse())

	_, ok := c.Get(ctx, req)
	assert.False(t, ok)
}
