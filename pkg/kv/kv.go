// Package kv provides the key-value store behind the persistent
// embedding index: flat string keys, prefix scans in lexicographic
// order, and atomic batch writes.
//
// The index relies on two properties of this contract: Scan yields
// entries in ascending key order (record keys embed a monotonic
// sequence number, so scan order is insertion order), and BatchSet /
// BatchDelete are atomic (a concurrent Scan never observes a
// partially-written record).
//
// The package includes a BadgerDB-backed implementation for production
// use and an in-memory implementation for tests.
package kv

import (
	"context"
	"errors"
	"iter"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("kv: not found")

// Entry is a key-value pair yielded by Scan and consumed by BatchSet.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the key-value store contract.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if the key
	// is not present.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Scan iterates over all entries whose key starts with prefix, in
	// ascending lexicographic key order. The yielded Value slices are
	// owned by the caller.
	Scan(ctx context.Context, prefix string) iter.Seq2[Entry, error]

	// BatchSet atomically stores multiple entries.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete atomically removes multiple keys.
	BatchDelete(ctx context.Context, keys []string) error

	// Close releases resources held by the store.
	Close() error
}
