package storageserver

import "sync"

// objectLocks is a keyed RW lock. Entries live only while held.
type objectLocks struct {
	mu    sync.Mutex
	locks map[string]*objectLock
}

type objectLock struct {
	sync.RWMutex
	refs int
}

func newObjectLocks() *objectLocks {
	return &objectLocks{locks: make(map[string]*objectLock)}
}

func (l *objectLocks) lock(name string, shared bool) (unlock func()) {
	l.mu.Lock()
	ol, ok := l.locks[name]
	if !ok {
		ol = &objectLock{}
		l.locks[name] = ol
	}
	ol.refs++
	l.mu.Unlock()

	if shared {
		ol.RLock()
	} else {
		ol.Lock()
	}

	return func() {
		if shared {
			ol.RUnlock()
		} else {
			ol.Unlock()
		}
		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, name)
		}
		l.mu.Unlock()
	}
}
