package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	counts map[string]int
}

func (r *countingRecorder) RecordCacheResult(op, result string) {
	r.counts[op+":"+result]++
}

func TestInstrumentedCache(t *testing.T) {
	ctx := context.Background()
	rec := &countingRecorder{counts: map[string]int{}}
	c := NewInstrumentedCache(NewMemoryCache(), rec)

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "category:page:1:10", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "category:page:1:10", payload{"Tôm", 1}, time.Minute))
	require.NoError(t, c.Get(ctx, "category:page:1:10", &got))
	assert.Equal(t, "Tôm", got.Name)

	require.NoError(t, c.InvalidatePattern(ctx, "category:*"))

	assert.Equal(t, map[string]int{
		"get:miss":      1,
		"get:hit":       1,
		"set:ok":        1,
		"invalidate:ok": 1,
	}, rec.counts)
}

func TestInstrumentedCacheWithoutRecorder(t *testing.T) {
	inner := NewMemoryCache()
	assert.Same(t, inner, NewInstrumentedCache(inner, nil))
}
