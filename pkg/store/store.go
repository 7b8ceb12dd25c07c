// Package store provides the persistence backends used around the editor:
// a byte-oriented Cache for computed layout positions and a Snapshots store
// for named organization documents.
//
// Backends are intentionally thin. The file implementations suit CLI usage,
// Redis and MongoDB suit a served deployment, and the null cache turns
// caching off without branching at call sites.
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned by [Snapshots.Load] when no snapshot exists
	// under the requested name.
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidName is returned when a snapshot name is empty or contains
	// path separators.
	ErrInvalidName = errors.New("invalid snapshot name")
)

// Cache stores opaque byte values under string keys with optional
// expiration. A TTL of 0 means the entry never expires. Get reports a miss
// with (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Snapshots stores named organization documents (the serialized model, not
// the derived chart). Save overwrites an existing snapshot of the same
// name.
type Snapshots interface {
	Save(ctx context.Context, name string, doc []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close(ctx context.Context) error
}

// validName rejects names that would escape a directory-backed store or
// collide with metadata. Kept deliberately strict so the same names are
// valid on every backend.
func validName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	for _, r := range name {
		switch r {
		case '/', '\\', 0:
			return ErrInvalidName
		}
	}
	return nil
}
