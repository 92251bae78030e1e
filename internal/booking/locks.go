package booking

import "sync"

// showingLocks hands out one mutex per showing id, created on demand.
// Commits and cancellations targeting the same showing serialize their
// check-and-claim step on this mutex; different showings never share a
// lock, so they proceed fully in parallel.  The registry itself is
// guarded by a plain mutex: lookups are cheap and the map only grows by
// one entry per showing ever booked through this process.
type showingLocks struct {
    mu    sync.Mutex
    locks map[uint64]*sync.Mutex
}

func newShowingLocks() *showingLocks {
    return &showingLocks{locks: make(map[uint64]*sync.Mutex)}
}

// get returns the mutex for the given showing, creating it on first
// use.  The returned mutex is never removed from the registry, so two
// callers asking for the same showing always receive the same lock.
func (l *showingLocks) get(showingID uint64) *sync.Mutex {
    l.mu.Lock()
    defer l.mu.Unlock()
    m, ok := l.locks[showingID]
    if !ok {
        m = &sync.Mutex{}
        l.locks[showingID] = m
    }
    return m
}
