package stage

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newTestMemoryStore(t *testing.T, ttl time.Duration) *MemoryStore {
    t.Helper()
    s := NewMemoryStore(ttl, time.Hour, time.Hour)
    t.Cleanup(s.Stop)
    return s
}

func TestMemoryStoreStageAndFetch(t *testing.T) {
    s := newTestMemoryStore(t, time.Minute)
    ctx := context.Background()

    sel := Selection{
        ShowingID:  3,
        Items:      []Item{{SeatID: 1, TicketTypeID: 2}},
        TotalCents: 1200,
        CreatedAt:  time.Now().UTC(),
    }
    require.NoError(t, s.Stage(ctx, "k", sel))

    got, err := s.Fetch(ctx, "k")
    require.NoError(t, err)
    assert.Equal(t, sel.ShowingID, got.ShowingID)
    assert.Equal(t, sel.Items, got.Items)
    assert.Equal(t, sel.TotalCents, got.TotalCents)
}

func TestMemoryStoreFetchIsolatesCaller(t *testing.T) {
    s := newTestMemoryStore(t, time.Minute)
    ctx := context.Background()

    require.NoError(t, s.Stage(ctx, "k", Selection{ShowingID: 1, Items: []Item{{SeatID: 5, TicketTypeID: 1}}}))
    got, err := s.Fetch(ctx, "k")
    require.NoError(t, err)
    got.Items[0].SeatID = 99

    again, err := s.Fetch(ctx, "k")
    require.NoError(t, err)
    assert.Equal(t, uint64(5), again.Items[0].SeatID)
}

func TestMemoryStoreStageOverwrites(t *testing.T) {
    s := newTestMemoryStore(t, time.Minute)
    ctx := context.Background()

    require.NoError(t, s.Stage(ctx, "k", Selection{ShowingID: 1, Items: []Item{{SeatID: 1, TicketTypeID: 1}}}))
    require.NoError(t, s.Stage(ctx, "k", Selection{ShowingID: 2, Items: []Item{{SeatID: 9, TicketTypeID: 2}}}))

    got, err := s.Fetch(ctx, "k")
    require.NoError(t, err)
    assert.Equal(t, uint64(2), got.ShowingID)
    require.Len(t, got.Items, 1)
    assert.Equal(t, uint64(9), got.Items[0].SeatID)
}

func TestMemoryStoreFetchMissing(t *testing.T) {
    s := newTestMemoryStore(t, time.Minute)
    _, err := s.Fetch(context.Background(), "absent")
    assert.ErrorIs(t, err, ErrNoSelection)
}

func TestMemoryStoreExpiry(t *testing.T) {
    s := newTestMemoryStore(t, 10*time.Millisecond)
    ctx := context.Background()

    require.NoError(t, s.Stage(ctx, "k", Selection{ShowingID: 1}))
    time.Sleep(25 * time.Millisecond)

    _, err := s.Fetch(ctx, "k")
    assert.ErrorIs(t, err, ErrNoSelection)
}

func TestMemoryStoreStageResetsTTL(t *testing.T) {
    s := newTestMemoryStore(t, 40*time.Millisecond)
    ctx := context.Background()

    require.NoError(t, s.Stage(ctx, "k", Selection{ShowingID: 1}))
    time.Sleep(25 * time.Millisecond)
    require.NoError(t, s.Stage(ctx, "k", Selection{ShowingID: 1}))
    time.Sleep(25 * time.Millisecond)

    _, err := s.Fetch(ctx, "k")
    assert.NoError(t, err)
}

func TestMemoryStoreClear(t *testing.T) {
    s := newTestMemoryStore(t, time.Minute)
    ctx := context.Background()

    require.NoError(t, s.Stage(ctx, "k", Selection{ShowingID: 1}))
    require.NoError(t, s.Clear(ctx, "k"))
    _, err := s.Fetch(ctx, "k")
    assert.ErrorIs(t, err, ErrNoSelection)

    // Clearing again stays a no-op.
    assert.NoError(t, s.Clear(ctx, "k"))
}

func TestMemoryStoreReservationID(t *testing.T) {
    s := newTestMemoryStore(t, time.Minute)
    ctx := context.Background()

    _, err := s.FetchReservationID(ctx, "k")
    assert.ErrorIs(t, err, ErrNoReservation)

    require.NoError(t, s.RecordReservationID(ctx, "k", 77))
    id, err := s.FetchReservationID(ctx, "k")
    require.NoError(t, err)
    assert.Equal(t, uint64(77), id)

    // The mapping survives clearing the selection.
    require.NoError(t, s.Clear(ctx, "k"))
    id, err = s.FetchReservationID(ctx, "k")
    require.NoError(t, err)
    assert.Equal(t, uint64(77), id)
}

func TestMemoryStoreSweepDropsExpired(t *testing.T) {
    s := NewMemoryStore(5*time.Millisecond, 5*time.Millisecond, 10*time.Millisecond)
    t.Cleanup(s.Stop)
    ctx := context.Background()

    require.NoError(t, s.Stage(ctx, "k", Selection{ShowingID: 1}))
    require.NoError(t, s.RecordReservationID(ctx, "k", 1))

    assert.Eventually(t, func() bool {
        s.mu.RLock()
        defer s.mu.RUnlock()
        return len(s.selections) == 0 && len(s.resIDs) == 0
    }, time.Second, 10*time.Millisecond)
}

func TestMemoryStoreSessionsIndependent(t *testing.T) {
    s := newTestMemoryStore(t, time.Minute)
    ctx := context.Background()

    require.NoError(t, s.Stage(ctx, "a", Selection{ShowingID: 1}))
    require.NoError(t, s.Stage(ctx, "b", Selection{ShowingID: 2}))
    require.NoError(t, s.Clear(ctx, "a"))

    _, err := s.Fetch(ctx, "a")
    assert.ErrorIs(t, err, ErrNoSelection)
    got, err := s.Fetch(ctx, "b")
    require.NoError(t, err)
    assert.Equal(t, uint64(2), got.ShowingID)
}
