// Package stage implements the session staging store: a transient,
// session-keyed record of a user's in-progress seat selection.  Staging
// is advisory – it never holds or reserves seats and is never consulted
// for availability.  Entries expire after a TTL and an expired entry is
// indistinguishable from an absent one.
package stage

import (
    "context"
    "errors"
    "time"
)

// ErrNoSelection is returned by Fetch when no staged selection exists
// for the session, either because none was staged, it expired, or it
// was cleared by a commit attempt.  Callers must treat this as "the
// user needs to re-enter their selection", not as a failure.
var ErrNoSelection = errors.New("no staged selection")

// ErrNoReservation is returned by FetchReservationID when no committed
// reservation has been recorded for the session.
var ErrNoReservation = errors.New("no reservation recorded for session")

// Item pairs a seat with the ticket type chosen for it.
type Item struct {
    SeatID       uint64 `json:"seat_id"`
    TicketTypeID uint64 `json:"ticket_type_id"`
}

// Selection is one user's uncommitted choice of showing, seats and
// ticket types together with the total computed at staging time.  A
// re-selection for the same session replaces the previous Selection
// wholesale; selections are never merged.
type Selection struct {
    ShowingID  uint64    `json:"showing_id"`
    Items      []Item    `json:"items"`
    TotalCents uint32    `json:"total_cents"`
    CreatedAt  time.Time `json:"created_at"`
}

// Store is the session staging contract.  Implementations must be safe
// for concurrent use across sessions; entries for different sessions
// are fully independent.
//
// Stage overwrites any existing selection for the session and starts a
// fresh TTL.  Clear removes the entry unconditionally and is called
// after every commit attempt, success or failure, so a stale retry can
// never reuse an outdated total.  RecordReservationID keeps a secondary
// session→reservation mapping with its own TTL so a later request (for
// example fetching a receipt) can find the reservation created in this
// session even after the selection entry is gone.
type Store interface {
    Stage(ctx context.Context, sessionKey string, sel Selection) error
    Fetch(ctx context.Context, sessionKey string) (*Selection, error)
    Clear(ctx context.Context, sessionKey string) error
    RecordReservationID(ctx context.Context, sessionKey string, reservationID uint64) error
    FetchReservationID(ctx context.Context, sessionKey string) (uint64, error)
}
