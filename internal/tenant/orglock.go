package tenant

import "sync"

// orgLocks serializes lifecycle operations per organization id so a
// rename can never race a delete on the same org. Locks for different
// orgs are independent. Entries are refcounted and removed once the
// last holder releases, so the map does not grow with dead orgs.
type orgLocks struct {
	mu    sync.Mutex
	locks map[string]*orgLock
}

type orgLock struct {
	mu   sync.Mutex
	refs int
}

func newOrgLocks() *orgLocks {
	return &orgLocks{locks: make(map[string]*orgLock)}
}

// lock acquires the lock for the org id and returns its release func.
func (l *orgLocks) lock(orgID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[orgID]
	if !ok {
		entry = &orgLock{}
		l.locks[orgID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, orgID)
		}
		l.mu.Unlock()
	}
}
