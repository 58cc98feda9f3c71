// Package result persists completed backtest results to cold storage.
package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/backtest"
	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/storage/archive"
)

const keyPrefix = "results"

// Store archives results as JSON blobs keyed by strategy and result ID.
// It satisfies backtest.ResultSink.
type Store struct {
	archive archive.Store
	logger  *zap.Logger
}

// NewStore creates a result store over the given archive backend.
func NewStore(a archive.Store, logger ...*zap.Logger) *Store {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Store{archive: a, logger: l}
}

func resultKey(strategyID, resultID string) string {
	return path.Join(keyPrefix, strategyID, resultID+".json")
}

// Save archives one result.
func (s *Store) Save(ctx context.Context, result *backtest.Result) error {
	if result.ID == "" {
		return core.WrapError(core.ErrStoreFailed, errors.New("result has no id"))
	}
	data, err := json.Marshal(result)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	if err := s.archive.Put(ctx, resultKey(result.StrategyID, result.ID), data); err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	s.logger.Debug("result archived",
		zap.String("result", result.ID),
		zap.String("strategy", result.StrategyID),
	)
	return nil
}

// Get loads a result by strategy and result ID.
func (s *Store) Get(ctx context.Context, strategyID, resultID string) (*backtest.Result, error) {
	data, err := s.archive.Get(ctx, resultKey(strategyID, resultID))
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, core.WrapError(core.ErrNotFound,
				fmt.Errorf("result %s/%s", strategyID, resultID))
		}
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}

	var result backtest.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return &result, nil
}

// ListIDs returns the archived result IDs for a strategy.
func (s *Store) ListIDs(ctx context.Context, strategyID string) ([]string, error) {
	keys, err := s.archive.List(ctx, path.Join(keyPrefix, strategyID))
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimSuffix(path.Base(k), ".json"))
	}
	return ids, nil
}

// Delete removes one archived result.
func (s *Store) Delete(ctx context.Context, strategyID, resultID string) error {
	if err := s.archive.Delete(ctx, resultKey(strategyID, resultID)); err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}
