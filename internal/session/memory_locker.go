package session

import (
	"context"
	"sync"
	"time"

	"github.com/aoki/docquery/internal/model"
)

// MemoryLocker implements Locker using an in-memory map. Used in dev mode
// (no DynamoDB) and in tests. Correct only within a single process.
type MemoryLocker struct {
	locks       map[string]*model.RefreshLock
	mu          sync.Mutex
	ttlDuration time.Duration
}

// NewMemoryLocker creates a new MemoryLocker with the default TTL.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks:       make(map[string]*model.RefreshLock),
		ttlDuration: DefaultTTL,
	}
}

func (m *MemoryLocker) Acquire(ctx context.Context, key, owner string) (*model.RefreshLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Unix()
	if existing, ok := m.locks[key]; ok {
		if existing.ExpiresAt > now && existing.Owner != owner {
			return nil, ErrLockHeld
		}
	}

	lock := &model.RefreshLock{
		Key:       key,
		Owner:     owner,
		ExpiresAt: now + int64(m.ttlDuration.Seconds()),
	}
	m.locks[key] = lock
	return lock, nil
}

func (m *MemoryLocker) Release(ctx context.Context, key, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locks[key]
	if !ok || existing.Owner != owner {
		return nil
	}
	delete(m.locks, key)
	return nil
}
