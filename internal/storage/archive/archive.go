// Package archive provides cold storage for backtest artifacts. Backends
// are content-agnostic blob stores keyed by slash-separated paths.
package archive

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when no object lives at the key.
var ErrNotExist = errors.New("archive: object does not exist")

// Store is a cold-storage backend.
type Store interface {
	// Put stores data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the object at key, or ErrNotExist.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns every key under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object lives at key.
	Exists(ctx context.Context, key string) (bool, error)
}
