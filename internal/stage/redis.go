package stage

import (
    "context"
    "encoding/json"
    "errors"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
)

// Key prefixes for the two mappings held per session.  Keeping them
// separate lets the reservation-id record outlive the selection TTL.
const (
    selKeyPrefix = "stage:sel:"
    resKeyPrefix = "stage:res:"
)

// RedisStore persists staged selections in Redis with native key TTLs.
// It shares the application's Redis client with the rate limiter; when
// no Redis is configured the server falls back to the MemoryStore.
type RedisStore struct {
    rdb    *redis.Client
    ttl    time.Duration
    resTTL time.Duration
}

// NewRedisStore wraps the given client.  ttl bounds the selection
// lifetime; resTTL bounds the session→reservation mapping.
func NewRedisStore(rdb *redis.Client, ttl, resTTL time.Duration) *RedisStore {
    return &RedisStore{rdb: rdb, ttl: ttl, resTTL: resTTL}
}

// Stage serializes the selection as JSON and SETs it with the TTL,
// overwriting any previous value for the session.
func (s *RedisStore) Stage(ctx context.Context, sessionKey string, sel Selection) error {
    body, err := json.Marshal(sel)
    if err != nil {
        return err
    }
    return s.rdb.Set(ctx, selKeyPrefix+sessionKey, body, s.ttl).Err()
}

// Fetch loads and decodes the staged selection.  A missing key maps to
// ErrNoSelection; Redis expires entries on its own so no explicit
// expiry check is needed here.
func (s *RedisStore) Fetch(ctx context.Context, sessionKey string) (*Selection, error) {
    body, err := s.rdb.Get(ctx, selKeyPrefix+sessionKey).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return nil, ErrNoSelection
        }
        return nil, err
    }
    var sel Selection
    if err := json.Unmarshal(body, &sel); err != nil {
        return nil, err
    }
    return &sel, nil
}

// Clear deletes the selection key.  Deleting an absent key is not an
// error.
func (s *RedisStore) Clear(ctx context.Context, sessionKey string) error {
    return s.rdb.Del(ctx, selKeyPrefix+sessionKey).Err()
}

// RecordReservationID stores the committed reservation id under its own
// key and TTL.
func (s *RedisStore) RecordReservationID(ctx context.Context, sessionKey string, reservationID uint64) error {
    return s.rdb.Set(ctx, resKeyPrefix+sessionKey, strconv.FormatUint(reservationID, 10), s.resTTL).Err()
}

// FetchReservationID returns the reservation id recorded for the
// session or ErrNoReservation.
func (s *RedisStore) FetchReservationID(ctx context.Context, sessionKey string) (uint64, error) {
    v, err := s.rdb.Get(ctx, resKeyPrefix+sessionKey).Result()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return 0, ErrNoReservation
        }
        return 0, err
    }
    id, err := strconv.ParseUint(v, 10, 64)
    if err != nil {
        return 0, ErrNoReservation
    }
    return id, nil
}

var _ Store = (*RedisStore)(nil)
