// Package ttlstore is a typed key/value store with per-entry expiry. A Store
// binds a key prefix to a value type and JSON-encodes values on a Backend
// (Redis in production, memory in tests and local runs).
package ttlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"didgate/pkg/platform/sentinel"
)

// ErrCorrupt marks a stored value that could not be decoded.
var ErrCorrupt = errors.New("corrupt stored value")

// CorruptError reports which key failed to decode.
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt value at %s: %v", e.Key, e.Err)
}

func (e *CorruptError) Unwrap() []error { return []error{ErrCorrupt, e.Err} }

// Backend stores raw bytes with expiry. Get returns sentinel.ErrNotFound for
// missing or expired keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store is a prefix-bound view of a Backend for values of type T.
type Store[T any] struct {
	backend Backend
	prefix  string
}

func New[T any](backend Backend, prefix string) *Store[T] {
	return &Store[T]{backend: backend, prefix: prefix}
}

// Key returns the backend key for id, "<prefix>-<id>".
func (s *Store[T]) Key(id fmt.Stringer) string {
	return s.prefix + "-" + id.String()
}

// Get loads the value for id. Missing keys yield sentinel.ErrNotFound; values
// that fail to decode yield a *CorruptError.
func (s *Store[T]) Get(ctx context.Context, id fmt.Stringer) (T, error) {
	var value T
	key := s.Key(id)
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, &CorruptError{Key: key, Err: err}
	}
	return value, nil
}

// Set overwrites the value for id with the given ttl.
func (s *Store[T]) Set(ctx context.Context, id fmt.Stringer, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.Key(id), err)
	}
	return s.backend.Set(ctx, s.Key(id), raw, ttl)
}

// Del removes id. Deleting a missing key is not an error.
func (s *Store[T]) Del(ctx context.Context, id fmt.Stringer) error {
	return s.backend.Del(ctx, s.Key(id))
}

// IsNotFound reports whether err means the key is absent or expired.
func IsNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
