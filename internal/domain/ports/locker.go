package ports

import "context"

// Locker serializes work on a key. Acquire blocks until the lock is held,
// the context ends, or the implementation's wait limit passes. The returned
// release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
