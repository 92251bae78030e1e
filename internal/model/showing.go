package model

import "time"

// Showing status values.  Transitions are append-only from the admin's
// point of view: SCHEDULED may become SOLD_OUT (capacity exhausted) or
// CANCELLED, and SOLD_OUT may become CANCELLED.  The single path back
// from SOLD_OUT to SCHEDULED is a reservation cancellation freeing
// capacity; it never happens through a direct status write.
const (
    ShowingScheduled = "SCHEDULED"
    ShowingSoldOut   = "SOLD_OUT"
    ShowingCancelled = "CANCELLED"
)

// Showing represents a scheduled screening of a movie in a particular
// room.  Seat availability is never stored on the showing itself; it is
// derived from reservation details at query time.
//
// Fields:
//  ID         – primary key identifier.
//  RoomID     – room where the screening takes place.
//  MovieTitle – title of the movie being screened.
//  StartsAt   – when the screening begins (UTC).
//  Language   – audio language of the screening.
//  Status     – current state (SCHEDULED, SOLD_OUT, CANCELLED).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Showing struct {
    ID         uint64    // showings.id
    RoomID     uint64    // showings.room_id
    MovieTitle string    // showings.movie_title
    StartsAt   time.Time // showings.starts_at
    Language   string    // showings.language
    Status     string    // showings.status
    CreatedAt  time.Time // showings.created_at
    UpdatedAt  time.Time // showings.updated_at
}
