// Package kv is durable keyed storage with last-write-wins semantics per
// key. It is the only shared mutable resource in the pipeline; higher-level
// components keep one writer role per key at a time instead of locking.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key is absent.
var ErrKeyNotFound = errors.New("kv: key not found")

// Entry is one key/value pair produced by a prefix scan.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the storage contract. All operations are atomic per key; no
// cross-key transactions are guaranteed. Concurrent writers to the same key
// race under last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// ScanPrefix returns every entry whose key starts with prefix, ordered
	// by key.
	ScanPrefix(ctx context.Context, prefix string) ([]Entry, error)
}
