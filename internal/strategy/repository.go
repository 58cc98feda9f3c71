package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/cache"
	"github.com/trendsim/trendsim/internal/core"
)

const cacheTTL = 5 * time.Minute

// Filter narrows List results.
type Filter struct {
	OwnerID         string
	Category        string
	PublicOnly      bool
	IncludeInactive bool
}

// Store is the persistence interface for strategy definitions.
type Store interface {
	Get(ctx context.Context, id string) (*Strategy, error)
	Save(ctx context.Context, s *Strategy) error
	List(ctx context.Context, f Filter) ([]*Strategy, error)
}

// Repository serves strategy definitions with a cache-aside read path and
// the built-in system strategies as a fallback when no persisted record
// exists for an id.
type Repository struct {
	store  Store
	cache  cache.Cache
	logger *zap.Logger
}

// NewRepository creates a repository. cache may be nil to disable caching.
func NewRepository(store Store, c cache.Cache, logger ...*zap.Logger) *Repository {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Repository{store: store, cache: c, logger: l}
}

func cacheKey(id string) string { return "strategy:" + id }

// Get returns the persisted strategy with the given id, falling back to a
// system strategy, or core.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*Strategy, error) {
	if s, ok := r.cached(ctx, id); ok {
		return s, nil
	}

	s, err := r.store.Get(ctx, id)
	if err == nil {
		r.cacheSet(ctx, s)
		return s, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	if sys, ok := SystemStrategy(id); ok {
		return sys, nil
	}
	return nil, core.WrapError(core.ErrNotFound, errors.New("strategy "+id))
}

// Create validates and persists a new strategy owned by ownerID.
func (r *Repository) Create(ctx context.Context, ownerID string, s *Strategy) (*Strategy, error) {
	if ownerID == "" {
		return nil, core.WrapError(core.ErrValidation, errors.New("owner is required"))
	}
	if result := Validate(s.Parameters, s.Rules); !result.IsValid {
		return nil, validationError(result)
	}

	now := time.Now().UTC()
	cp := *s
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.OwnerID = ownerID
	cp.IsActive = true
	cp.Version = "1"
	cp.CreatedAt = now
	cp.UpdatedAt = now

	if err := r.store.Save(ctx, &cp); err != nil {
		return nil, err
	}
	r.cacheSet(ctx, &cp)
	return &cp, nil
}

// Update replaces a strategy's definition. Only the owner may update, the
// version is bumped, and system strategies are immutable.
func (r *Repository) Update(ctx context.Context, ownerID string, s *Strategy) (*Strategy, error) {
	existing, err := r.store.Get(ctx, s.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			if _, ok := SystemStrategy(s.ID); ok {
				return nil, core.ErrImmutable
			}
		}
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, core.ErrNotOwner
	}
	if result := Validate(s.Parameters, s.Rules); !result.IsValid {
		return nil, validationError(result)
	}

	cp := *s
	cp.OwnerID = existing.OwnerID
	cp.CreatedAt = existing.CreatedAt
	cp.Version = bumpVersion(existing.Version)
	cp.UpdatedAt = time.Now().UTC()

	if err := r.store.Save(ctx, &cp); err != nil {
		return nil, err
	}
	r.cacheInvalidate(ctx, cp.ID)
	r.cacheSet(ctx, &cp)
	return &cp, nil
}

// Delete soft-deletes a strategy by marking it inactive. Records are never
// physically removed.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	existing, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			if _, ok := SystemStrategy(id); ok {
				return core.ErrImmutable
			}
		}
		return err
	}
	if existing.OwnerID != ownerID {
		return core.ErrNotOwner
	}

	existing.IsActive = false
	existing.UpdatedAt = time.Now().UTC()
	if err := r.store.Save(ctx, existing); err != nil {
		return err
	}
	r.cacheInvalidate(ctx, id)
	return nil
}

// List returns persisted strategies matching the filter plus the system
// strategies not shadowed by a persisted record.
func (r *Repository) List(ctx context.Context, f Filter) ([]*Strategy, error) {
	persisted, err := r.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(persisted))
	for _, s := range persisted {
		seen[s.ID] = struct{}{}
	}

	out := persisted
	if f.OwnerID == "" {
		for _, sys := range SystemStrategies() {
			if _, shadowed := seen[sys.ID]; shadowed {
				continue
			}
			if f.Category != "" && sys.Category != f.Category {
				continue
			}
			out = append(out, sys)
		}
	}
	return out, nil
}

// Validate exposes definition validation without persistence.
func (r *Repository) Validate(params []Parameter, rules []Rule) ValidationResult {
	return Validate(params, rules)
}

func validationError(result ValidationResult) error {
	msg := "invalid strategy"
	if len(result.Errors) > 0 {
		msg = result.Errors[0]
	}
	return core.WrapError(core.ErrValidation, errors.New(msg))
}

// Cache helpers. Cache failures are logged and ignored: the store is the
// source of truth.

func (r *Repository) cached(ctx context.Context, id string) (*Strategy, bool) {
	if r.cache == nil {
		return nil, false
	}
	data, ok, err := r.cache.Get(ctx, cacheKey(id))
	if err != nil {
		r.logger.Warn("strategy cache read failed", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var s Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Warn("strategy cache entry corrupt", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	return &s, true
}

func (r *Repository) cacheSet(ctx context.Context, s *Strategy) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(s.ID), data, cacheTTL); err != nil {
		r.logger.Warn("strategy cache write failed", zap.String("id", s.ID), zap.Error(err))
	}
}

func (r *Repository) cacheInvalidate(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, cacheKey(id)); err != nil {
		r.logger.Warn("strategy cache invalidation failed", zap.String("id", id), zap.Error(err))
	}
}
