package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPageCache_HitAfterMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryPageCache(time.Minute)
	r := &countingRenderer{body: "v1"}

	for i := 0; i < 3; i++ {
		body, err := cache.Render(ctx, "/dashboard/invoices", "page=1", r.render)
		require.NoError(t, err)
		assert.Equal(t, "v1", string(body))
	}
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestMemoryPageCache_RevalidateOnlyAffectsPath(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryPageCache(time.Minute)
	invoices := &countingRenderer{body: "invoices"}
	customers := &countingRenderer{body: "customers"}

	cache.Render(ctx, "/dashboard/invoices", "", invoices.render)
	cache.Render(ctx, "/dashboard/customers", "", customers.render)

	require.NoError(t, cache.Revalidate(ctx, "/dashboard/invoices"))

	cache.Render(ctx, "/dashboard/invoices", "", invoices.render)
	cache.Render(ctx, "/dashboard/customers", "", customers.render)

	assert.Equal(t, int32(2), invoices.calls.Load())
	assert.Equal(t, int32(1), customers.calls.Load())
}

func TestMemoryPageCache_RenderStartedBeforeRevalidateIsNotServed(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryPageCache(time.Minute)

	cache.Render(ctx, "/p", "", func(ctx context.Context) ([]byte, error) {
		cache.Revalidate(ctx, "/p")
		return []byte("stale"), nil
	})

	body, err := cache.Render(ctx, "/p", "", func(ctx context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(body))
}

func TestMemoryPageCache_RenderErrorNotCached(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryPageCache(time.Minute)
	boom := errors.New("boom")

	_, err := cache.Render(ctx, "/p", "", func(ctx context.Context) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	r := &countingRenderer{body: "ok"}
	body, err := cache.Render(ctx, "/p", "", r.render)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(1), r.calls.Load())
}
