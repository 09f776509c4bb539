// Package keylock provides mutual exclusion keyed by an arbitrary string,
// e.g. a place name or a user id.
package keylock

import "context"

// Locker serializes work per key. Lock blocks until the key is free or ctx
// is done; the returned func releases the key and is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
