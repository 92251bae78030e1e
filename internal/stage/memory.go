package stage

import (
    "context"
    "sync"
    "time"
)

// memEntry wraps a value with its expiry deadline.
type memEntry struct {
    sel       *Selection
    resID     uint64
    expiresAt time.Time
}

func (e *memEntry) expired(now time.Time) bool { return !now.Before(e.expiresAt) }

// MemoryStore keeps staged selections in an in-process arena keyed by
// session id.  Expired entries are dropped lazily on read and by a
// periodic sweep so the arena cannot grow without bound.  Contents are
// lost on process restart, which is acceptable for advisory staging.
type MemoryStore struct {
    mu         sync.RWMutex
    selections map[string]*memEntry
    resIDs     map[string]*memEntry
    ttl        time.Duration
    resTTL     time.Duration
    stop       chan struct{}
    stopOnce   sync.Once
}

// NewMemoryStore builds a MemoryStore with the given selection TTL and
// reservation-id TTL and starts the background sweep.  Callers should
// Stop the store when shutting down.
func NewMemoryStore(ttl, resTTL time.Duration, sweepEvery time.Duration) *MemoryStore {
    if sweepEvery <= 0 {
        sweepEvery = time.Minute
    }
    s := &MemoryStore{
        selections: make(map[string]*memEntry),
        resIDs:     make(map[string]*memEntry),
        ttl:        ttl,
        resTTL:     resTTL,
        stop:       make(chan struct{}),
    }
    go s.sweepLoop(sweepEvery)
    return s
}

// Stage overwrites any existing selection for the session and resets
// its TTL.  No availability check happens here; staging never holds a
// seat.
func (s *MemoryStore) Stage(_ context.Context, sessionKey string, sel Selection) error {
    cp := sel
    cp.Items = append([]Item(nil), sel.Items...)
    s.mu.Lock()
    s.selections[sessionKey] = &memEntry{sel: &cp, expiresAt: time.Now().UTC().Add(s.ttl)}
    s.mu.Unlock()
    return nil
}

// Fetch returns the staged selection or ErrNoSelection when absent or
// expired.  Expired entries are removed on the spot.
func (s *MemoryStore) Fetch(_ context.Context, sessionKey string) (*Selection, error) {
    now := time.Now().UTC()
    s.mu.RLock()
    e, ok := s.selections[sessionKey]
    s.mu.RUnlock()
    if !ok {
        return nil, ErrNoSelection
    }
    if e.expired(now) {
        s.mu.Lock()
        // Re-check under the write lock; a concurrent Stage may have
        // replaced the entry since the read.
        if cur, ok := s.selections[sessionKey]; ok && cur.expired(now) {
            delete(s.selections, sessionKey)
        }
        s.mu.Unlock()
        return nil, ErrNoSelection
    }
    cp := *e.sel
    cp.Items = append([]Item(nil), e.sel.Items...)
    return &cp, nil
}

// Clear removes the staged selection for the session.  Clearing an
// absent session is a no-op.
func (s *MemoryStore) Clear(_ context.Context, sessionKey string) error {
    s.mu.Lock()
    delete(s.selections, sessionKey)
    s.mu.Unlock()
    return nil
}

// RecordReservationID stores the id of the reservation committed in
// this session, independent of the selection entry and its TTL.
func (s *MemoryStore) RecordReservationID(_ context.Context, sessionKey string, reservationID uint64) error {
    s.mu.Lock()
    s.resIDs[sessionKey] = &memEntry{resID: reservationID, expiresAt: time.Now().UTC().Add(s.resTTL)}
    s.mu.Unlock()
    return nil
}

// FetchReservationID returns the reservation id recorded for this
// session, or ErrNoReservation when none exists or it expired.
func (s *MemoryStore) FetchReservationID(_ context.Context, sessionKey string) (uint64, error) {
    now := time.Now().UTC()
    s.mu.RLock()
    e, ok := s.resIDs[sessionKey]
    s.mu.RUnlock()
    if !ok || e.expired(now) {
        return 0, ErrNoReservation
    }
    return e.resID, nil
}

// Stop terminates the background sweep.  The store remains usable but
// relies solely on lazy expiry afterwards.
func (s *MemoryStore) Stop() {
    s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweepLoop(every time.Duration) {
    t := time.NewTicker(every)
    defer t.Stop()
    for {
        select {
        case <-s.stop:
            return
        case now := <-t.C:
            s.sweep(now.UTC())
        }
    }
}

// sweep drops all expired entries from both arenas.
func (s *MemoryStore) sweep(now time.Time) {
    s.mu.Lock()
    for k, e := range s.selections {
        if e.expired(now) {
            delete(s.selections, k)
        }
    }
    for k, e := range s.resIDs {
        if e.expired(now) {
            delete(s.resIDs, k)
        }
    }
    s.mu.Unlock()
}

var _ Store = (*MemoryStore)(nil)
