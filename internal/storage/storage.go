// Package storage abstracts the object store the pipeline writes originals
// and converted images to. Implementations should use SDK default credential
// chains and be safe for concurrent use.
package storage

import (
	"context"
	"errors"
)

// Sentinel errors for object-store operations.
var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrStoreUnavailable indicates the store did not answer.
	ErrStoreUnavailable = errors.New("object store unavailable")
)

// ObjectStore is the narrow collaborator interface the pipeline consumes.
type ObjectStore interface {
	// Put stores data under a freshly generated ref inside scope and
	// returns the ref.
	Put(ctx context.Context, data []byte, contentType, scope string) (string, error)

	// Get returns the bytes stored under ref. Returns ErrNotFound if the
	// object does not exist.
	Get(ctx context.Context, ref string) ([]byte, error)

	// Exists reports whether ref is present.
	Exists(ctx context.Context, ref string) (bool, error)
}
