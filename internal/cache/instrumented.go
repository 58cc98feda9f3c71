package cache

import (
	"context"
	"time"
)

// RecordFunc receives the outcome of one cache operation, e.g.
// ("get", "hit") or ("set", "error").
type RecordFunc func(operation, outcome string)

// Instrumented decorates a Cache with operation telemetry. It changes
// no behavior: every call is forwarded unmodified.
type Instrumented struct {
	inner  Cache
	record RecordFunc
}

// NewInstrumented wraps inner so every operation is reported through
// record. A nil record returns inner unwrapped.
func NewInstrumented(inner Cache, record RecordFunc) Cache {
	if record == nil {
		return inner
	}
	return &Instrumented{inner: inner, record: record}
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := c.inner.Get(ctx, key)
	switch {
	case err != nil:
		c.record("get", "error")
	case ok:
		c.record("get", "hit")
	default:
		c.record("get", "miss")
	}
	return value, ok, err
}

func (c *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, value, ttl)
	if err != nil {
		c.record("set", "error")
	} else {
		c.record("set", "ok")
	}
	return err
}

func (c *Instrumented) Delete(ctx context.Context, key string) error {
	err := c.inner.Delete(ctx, key)
	if err != nil {
		c.record("delete", "error")
	} else {
		c.record("delete", "ok")
	}
	return err
}
