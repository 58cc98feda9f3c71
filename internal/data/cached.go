package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/cache"
	"github.com/trendsim/trendsim/internal/core"
)

// CachedSource wraps a HistoricalSource with a cache-aside layer. Cache
// failures are logged and fall through to the underlying source.
type CachedSource struct {
	source HistoricalSource
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSource wraps source with the given cache and TTL.
func NewCachedSource(source HistoricalSource, c cache.Cache, ttl time.Duration, logger ...*zap.Logger) *CachedSource {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &CachedSource{source: source, cache: c, ttl: ttl, logger: l}
}

func barsKey(symbol string, period core.Period) string {
	return fmt.Sprintf("bars:%s:%d:%d", symbol, period.Start.Unix(), period.End.Unix())
}

func (c *CachedSource) Load(ctx context.Context, symbol string, period core.Period) ([]core.Bar, error) {
	key := barsKey(symbol, period)

	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("bar cache read failed", zap.String("symbol", symbol), zap.Error(err))
	} else if ok {
		var bars []core.Bar
		if err := json.Unmarshal(data, &bars); err == nil {
			return bars, nil
		}
		c.logger.Warn("bar cache entry corrupt", zap.String("symbol", symbol))
	}

	bars, err := c.source.Load(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(bars); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("bar cache write failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return bars, nil
}
