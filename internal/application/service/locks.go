package service

import "sync"

// identifierLocks serializes work per reminder identifier. Bulk operations
// take every identifier at once and exclude all per-identifier holders.
type identifierLocks struct {
	all   sync.RWMutex
	mu    sync.Mutex // Protects locks
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newIdentifierLocks() *identifierLocks {
	return &identifierLocks{locks: make(map[string]*refMutex)}
}

// Lock locks id and returns the matching unlock. Not reentrant.
func (l *identifierLocks) Lock(id string) (unlock func()) {
	l.all.RLock()

	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &refMutex{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
		l.all.RUnlock()
	}
}

// LockAll waits for every per-identifier holder and blocks new ones.
func (l *identifierLocks) LockAll() (unlock func()) {
	l.all.Lock()
	return l.all.Unlock
}

func (l *identifierLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
