// Package storage defines the durable key-value contract application state is
// persisted through, together with its SQLite implementation.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KV.Get when nothing is stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// KV is a durable key-value store. Each state document (subscriptions,
// settings) lives under its own key and is rewritten whole on every change.
type KV interface {
	// Get returns the stored value or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
