// Package kvstore is the key-value persistence collaborator. All pipeline
// keys are job-scoped (job:{id}, job:{id}:text, ...), so no two jobs ever
// write the same key and no locking discipline or multi-key transaction is
// required of implementations.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get for absent keys. Callers treat it as
// "null", not as a failure.
var ErrKeyNotFound = errors.New("key not found")

// Store is the narrow key-value interface the pipeline consumes.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}
