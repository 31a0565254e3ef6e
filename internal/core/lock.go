package core

import "sync"

// userLocks serializes provisioning per user within this process, so two
// concurrent requests cannot both admit against a stale usage snapshot. The
// lock is held from the Validating step through Persisting. Cross-node
// exclusion is intentionally out of scope.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
