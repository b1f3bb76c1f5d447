package service

import "sync"

// playerLocks hands out one mutex per player. Entries are dropped once no
// goroutine holds or waits for them.
type playerLocks struct {
	mu      sync.Mutex
	entries map[string]*playerLock
}

type playerLock struct {
	mu   sync.Mutex
	refs int
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{entries: make(map[string]*playerLock)}
}

// lock blocks until playerID is free and returns the matching unlock.
func (l *playerLocks) lock(playerID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[playerID]
	if !ok {
		entry = &playerLock{}
		l.entries[playerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, playerID)
		}
		l.mu.Unlock()
	}
}

func (l *playerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
