// Package store abstracts the two durable backends the gateway depends
// on: a key-value config store for site records and admin principals,
// and a bulk object store for site files. Both are assumed external and
// only eventually consistent; every write path here is designed to be
// safely retriable.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist. Deletes
// of absent keys succeed silently; lifecycle operations depend on that
// idempotence.
var ErrNotFound = errors.New("not found")

// ConfigStore holds small JSON records: site configs keyed by
// "{brand}/{name}" and admin principals keyed by "_admin:{hash}".
type ConfigStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	// List returns all keys beginning with prefix. An empty prefix
	// lists everything.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ObjectStore holds opaque file bytes under "{brand}/{name}/{path}"
// keys. Writes are idempotent overwrites; deletion is by prefix and
// order-independent.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	// DeletePrefix removes every object under prefix, batched, and
	// returns the number deleted. Deleting an empty prefix is not an
	// error.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
