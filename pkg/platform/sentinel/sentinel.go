package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores, queues and
// clients. Services translate them into coded domain errors; handlers never
// see them directly.
//
//   - ErrNotFound: key or row does not exist (or its TTL elapsed)
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrInvalidState: entity is in the wrong state for the operation
//   - ErrUnavailable: a downstream dependency is unreachable or short-circuited
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
