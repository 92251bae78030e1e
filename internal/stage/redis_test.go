package stage

import (
    "context"
    "encoding/json"
    "testing"
    "time"

    "github.com/go-redis/redismock/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRedisStoreStage(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    s := NewRedisStore(rdb, 10*time.Minute, time.Hour)
    ctx := context.Background()

    sel := Selection{ShowingID: 4, Items: []Item{{SeatID: 2, TicketTypeID: 1}}, TotalCents: 1200}
    body, err := json.Marshal(sel)
    require.NoError(t, err)

    mock.ExpectSet("stage:sel:k", body, 10*time.Minute).SetVal("OK")
    require.NoError(t, s.Stage(ctx, "k", sel))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreFetch(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    s := NewRedisStore(rdb, 10*time.Minute, time.Hour)
    ctx := context.Background()

    sel := Selection{ShowingID: 4, Items: []Item{{SeatID: 2, TicketTypeID: 1}}, TotalCents: 1200}
    body, err := json.Marshal(sel)
    require.NoError(t, err)

    mock.ExpectGet("stage:sel:k").SetVal(string(body))
    got, err := s.Fetch(ctx, "k")
    require.NoError(t, err)
    assert.Equal(t, sel.ShowingID, got.ShowingID)
    assert.Equal(t, sel.Items, got.Items)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreFetchMissing(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    s := NewRedisStore(rdb, 10*time.Minute, time.Hour)

    mock.ExpectGet("stage:sel:absent").RedisNil()
    _, err := s.Fetch(context.Background(), "absent")
    assert.ErrorIs(t, err, ErrNoSelection)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreClear(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    s := NewRedisStore(rdb, 10*time.Minute, time.Hour)

    mock.ExpectDel("stage:sel:k").SetVal(1)
    assert.NoError(t, s.Clear(context.Background(), "k"))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreReservationID(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    s := NewRedisStore(rdb, 10*time.Minute, time.Hour)
    ctx := context.Background()

    mock.ExpectSet("stage:res:k", "91", time.Hour).SetVal("OK")
    require.NoError(t, s.RecordReservationID(ctx, "k", 91))

    mock.ExpectGet("stage:res:k").SetVal("91")
    id, err := s.FetchReservationID(ctx, "k")
    require.NoError(t, err)
    assert.Equal(t, uint64(91), id)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreReservationIDMissing(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    s := NewRedisStore(rdb, 10*time.Minute, time.Hour)

    mock.ExpectGet("stage:res:absent").RedisNil()
    _, err := s.FetchReservationID(context.Background(), "absent")
    assert.ErrorIs(t, err, ErrNoReservation)
    assert.NoError(t, mock.ExpectationsWereMet())
}
