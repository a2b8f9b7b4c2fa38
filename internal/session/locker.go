package session

import (
	"context"

	"github.com/aoki/docquery/internal/model"
)

// Locker serializes credential refreshes. The "check expiry, refresh,
// persist" sequence for a (user, provider) pair must not run concurrently,
// otherwise a second request can overwrite a fresh token with a stale one.
type Locker interface {
	// Acquire attempts to take the refresh lock for the given key.
	Acquire(ctx context.Context, key, owner string) (*model.RefreshLock, error)

	// Release removes the lock if the owner holds it.
	Release(ctx context.Context, key, owner string) error
}
