// Package storage provides the key-value backends that hold unlock and
// tracking records.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Provider is a durable key-value store. Values are opaque bytes.
type Provider interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Clear deletes every key owned by this provider.
	Clear(ctx context.Context) error
}
