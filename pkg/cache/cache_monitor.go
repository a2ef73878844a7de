package cache

import (
	"context"
	"errors"
	"time"
)

// ResultRecorder 缓存读写结果的指标出口
type ResultRecorder interface {
	RecordCacheResult(op, result string)
}

// InstrumentedCache 统计命中率与错误，不改变底层语义
type InstrumentedCache struct {
	inner    CacheService
	recorder ResultRecorder
}

// NewInstrumentedCache recorder 为 nil 时直接返回 inner
func NewInstrumentedCache(inner CacheService, recorder ResultRecorder) CacheService {
	if recorder == nil {
		return inner
	}
	return &InstrumentedCache{inner: inner, recorder: recorder}
}

func (c *InstrumentedCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.inner.Get(ctx, key, dest)
	switch {
	case err == nil:
		c.recorder.RecordCacheResult("get", "hit")
	case errors.Is(err, ErrCacheMiss):
		c.recorder.RecordCacheResult("get", "miss")
	default:
		c.recorder.RecordCacheResult("get", "error")
	}
	return err
}

func (c *InstrumentedCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	err := c.inner.Set(ctx, key, value, expiration)
	c.recorder.RecordCacheResult("set", outcome(err))
	return err
}

func (c *InstrumentedCache) Delete(ctx context.Context, keys ...string) error {
	err := c.inner.Delete(ctx, keys...)
	c.recorder.RecordCacheResult("delete", outcome(err))
	return err
}

func (c *InstrumentedCache) InvalidatePattern(ctx context.Context, pattern string) error {
	err := c.inner.InvalidatePattern(ctx, pattern)
	c.recorder.RecordCacheResult("invalidate", outcome(err))
	return err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
